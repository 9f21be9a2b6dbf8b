// Package art resolves pose asset references from character manifests and
// holds the ASCII frames the terminal host draws.
package art

import (
	"net/url"
	"path"
	"strings"

	"github.com/sethgrid/pixelpaws/internal/pet"
)

// DefaultCharacter is the bundled character used before any manifest loads.
const DefaultCharacter = "cat01"

// Manifest maps pose names to asset references for one character.
type Manifest struct {
	CharacterID string
	BaseURL     string
	Version     string
	Files       map[string]string
}

var bundledFiles = map[pet.Pose]string{
	pet.Idle:    "cat01_idle_8fps.gif",
	pet.Walk:    "cat01_walk_8fps.gif",
	pet.Run:     "cat01_run_12fps.gif",
	pet.Lifted:  "cat01_fright_12fps.gif",
	pet.Attack:  "cat01_attack_12fps.gif",
	pet.Sit:     "cat01_sit_8fps.gif",
	pet.LieDown: "cat01_liedown_8fps.gif",
	pet.Jump:    "cat01_jump_12fps.gif",
	pet.Land:    "cat01_land_12fps.gif",
}

// Bundled returns the local references shipped with the app, rooted at dir.
func Bundled(dir string) pet.Assets {
	if dir == "" {
		dir = "catset_assets/catset_gifs/cat01_gifs"
	}
	var a pet.Assets
	for p, file := range bundledFiles {
		a[p] = path.Join(dir, file)
	}
	return a
}

// Resolve builds pose references from m. Poses the manifest leaves out keep
// the fallback reference untouched.
func Resolve(m Manifest, fallback pet.Assets) pet.Assets {
	out := fallback
	for _, p := range pet.Poses() {
		if file := strings.TrimSpace(m.Files[p.String()]); file != "" {
			out[p] = JoinRef(m.BaseURL, file)
		}
	}
	return out
}

// JoinRef joins a reference onto base. Absolute URLs are returned as they are.
func JoinRef(base, ref string) string {
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if base == "" {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}
