package taxonomy

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"projects.app", "projects.app"},
		{"Projects/App Decisions", "projects.app_decisions"},
		{"user.name", "profile.name"},
		{"user", "profile"},
		{"a..b", "a.b"},
		{"", DefaultPath},
		{"...", DefaultPath},
		{"a.b.c.d.e.f.g.h", "a.b.c.d.e.f"}, // truncated at MaxDepth
		{"Ref\\notes", "ref.notes"},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateIsStrict(t *testing.T) {
	for _, ok := range []string{"projects", "projects.app.decisions", "a_1.b_2"} {
		if err := Validate(ok); err != nil {
			t.Errorf("Validate(%q) should pass: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "Projects.app", "a..b", "a b", "a.b.c.d.e.f.g"} {
		if err := Validate(bad); err == nil {
			t.Errorf("Validate(%q) should fail", bad)
		}
	}
}

func TestDescendsAndRebase(t *testing.T) {
	if !Descends("projects.app.notes", "projects.app") {
		t.Error("child should descend from parent")
	}
	if !Descends("projects.app", "projects.app") {
		t.Error("a path descends from itself")
	}
	if Descends("projects.application", "projects.app") {
		t.Error("label prefixes must not count as subtree membership")
	}

	if got := Rebase("projects.app.notes", "projects.app", "archive.app"); got != "archive.app.notes" {
		t.Errorf("Rebase = %q", got)
	}
	if got := Rebase("projects.app", "projects.app", "archive.app"); got != "archive.app" {
		t.Errorf("Rebase of the prefix itself = %q", got)
	}
}
