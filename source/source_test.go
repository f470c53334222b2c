package source

import "testing"

func TestClassify_Local(t *testing.T) {
	for _, src := range []string{"./modules/vpc", "../shared", "/opt/modules/vpc"} {
		r := Classify(src)
		if r.Kind != KindLocal {
			t.Errorf("Classify(%q).Kind = %s, want local", src, r.Kind)
		}
		if r.Path != src {
			t.Errorf("Classify(%q).Path = %q", src, r.Path)
		}
	}
}

func TestClassify_Registry(t *testing.T) {
	r := Classify("terraform-aws-modules/vpc/aws")
	if r.Kind != KindRegistry {
		t.Fatalf("Kind = %s, want registry", r.Kind)
	}
	if r.Namespace != "terraform-aws-modules" || r.Name != "vpc" || r.Provider != "aws" {
		t.Errorf("coordinates = %s/%s/%s", r.Namespace, r.Name, r.Provider)
	}
	if r.Subdir != "" {
		t.Errorf("Subdir = %q, want empty", r.Subdir)
	}
}

func TestClassify_RegistryWithSubdir(t *testing.T) {
	r := Classify("terraform-aws-modules/iam/aws//modules/iam-user")
	if r.Kind != KindRegistry {
		t.Fatalf("Kind = %s, want registry", r.Kind)
	}
	if r.Subdir != "modules/iam-user" {
		t.Errorf("Subdir = %q, want modules/iam-user", r.Subdir)
	}
}

func TestClassify_Direct(t *testing.T) {
	cases := []string{
		"https://github.com/foo/bar.git",
		"git@github.com:foo/bar.git",
		// Provider segment with uppercase violates the registry pattern.
		"ns/name/AWS",
		// Namespace may not end with a separator.
		"bad-/name/aws",
		// Four plain segments are not a registry triple.
		"a/b/c/d",
	}
	for _, src := range cases {
		if r := Classify(src); r.Kind != KindDirect {
			t.Errorf("Classify(%q).Kind = %s, want direct", src, r.Kind)
		}
	}
}

func TestClassify_SingleCharSegments(t *testing.T) {
	r := Classify("a/b/c")
	if r.Kind != KindRegistry {
		t.Errorf("single-char segments should satisfy the registry pattern, got %s", r.Kind)
	}
}

func TestInjectCredential_GitHubURL(t *testing.T) {
	got := InjectCredential("https://github.com/foo/bar.git", "tok123")
	want := "https://tok123@github.com/foo/bar.git"
	if got != want {
		t.Errorf("InjectCredential = %q, want %q", got, want)
	}
}

func TestInjectCredential_NonGitHubUnchanged(t *testing.T) {
	url := "https://gitlab.com/foo/bar.git"
	if got := InjectCredential(url, "tok123"); got != url {
		t.Errorf("non-GitHub url was rewritten: %q", got)
	}
}

func TestInjectCredential_EmptyToken(t *testing.T) {
	url := "https://github.com/foo/bar.git"
	if got := InjectCredential(url, ""); got != url {
		t.Errorf("empty token should leave url unchanged, got %q", got)
	}
}
