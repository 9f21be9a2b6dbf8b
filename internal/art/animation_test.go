package art

import (
	"strings"
	"testing"

	"github.com/sethgrid/pixelpaws/internal/pet"
)

func TestEveryPoseHasArt(t *testing.T) {
	for _, p := range pet.Poses() {
		if strings.TrimSpace(PoseArt(p)) == "" {
			t.Errorf("no art for %v", p)
		}
	}
	if PoseArt(pet.Pose(99)) != PoseArt(pet.Idle) {
		t.Error("unknown pose should fall back to idle art")
	}
}

func TestLinesMirrored(t *testing.T) {
	frame := " /\\_/\\\n( o.o )\n > ^ <"
	got := Lines(frame, true)
	want := []string{" /\\_/\\ ", "( o.o )", " > ^ < "}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}

	plain := Lines(frame, false)
	if plain[1] != "( o.o )" {
		t.Errorf("unmirrored line = %q", plain[1])
	}
}

func TestBounds(t *testing.T) {
	w, h := Bounds()
	if w < 7 || h != 3 {
		t.Errorf("Bounds() = %d x %d", w, h)
	}
}

func TestJoinRef(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{name: "no base", base: "", ref: "idle.gif", want: "idle.gif"},
		{name: "plain join", base: "https://cdn.example.com/cats/02", ref: "idle.gif", want: "https://cdn.example.com/cats/02/idle.gif"},
		{name: "slashes trimmed", base: "https://cdn.example.com/cats/02/", ref: "/idle.gif", want: "https://cdn.example.com/cats/02/idle.gif"},
		{name: "absolute ref kept", base: "https://cdn.example.com", ref: "https://other.example.com/x.gif", want: "https://other.example.com/x.gif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinRef(tt.base, tt.ref); got != tt.want {
				t.Errorf("JoinRef(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolveKeepsFallbackForMissingFiles(t *testing.T) {
	fallback := Bundled("local")
	m := Manifest{
		BaseURL: "https://cdn.example.com/cats/02/v1",
		Files: map[string]string{
			"idle": "cat02_idle.gif",
			"walk": "cat02_walk.gif",
			"jump": "  ",
		},
	}
	got := Resolve(m, fallback)

	if got.Ref(pet.Idle) != "https://cdn.example.com/cats/02/v1/cat02_idle.gif" {
		t.Errorf("idle = %q", got.Ref(pet.Idle))
	}
	if got.Ref(pet.Jump) != "local/cat01_jump_12fps.gif" {
		t.Errorf("jump = %q, want the fallback", got.Ref(pet.Jump))
	}
	if !got.Complete() {
		t.Error("resolved assets are incomplete")
	}
}

func TestBundledIsComplete(t *testing.T) {
	a := Bundled("")
	if !a.Complete() {
		t.Fatal("bundled assets are incomplete")
	}
	if a.Ref(pet.Lifted) != "catset_assets/catset_gifs/cat01_gifs/cat01_fright_12fps.gif" {
		t.Errorf("lifted = %q", a.Ref(pet.Lifted))
	}
}
