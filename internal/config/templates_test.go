package config

import "testing"

func TestEveryTemplateBuildsAndValidates(t *testing.T) {
	for _, name := range Templates {
		cfg, err := Template(name)
		if err != nil {
			t.Fatalf("Template(%q): %v", name, err)
		}
		cfg.Target.IP = "10.0.0.1"
		if err := cfg.Validate(); err != nil {
			t.Fatalf("template %q failed validation: %v", name, err)
		}
	}
}

func TestUnknownTemplateErrors(t *testing.T) {
	if _, err := Template("nonexistent"); err == nil {
		t.Fatal("expected an error for an unknown template name")
	}
}
