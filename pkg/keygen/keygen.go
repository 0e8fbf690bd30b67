package keygen

import (
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const maxNameLength = 64

// ObjectKey builds a unique storage key for an uploaded file:
// <folder>/<uuid>-<slugified base name><lower-cased extension>
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	base := slug.Make(strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
	if len(base) > maxNameLength {
		base = strings.TrimRight(base[:maxNameLength], "-")
	}

	name := uuid.NewString()
	if base != "" {
		name += "-" + base
	}
	return JoinFolder(folder, name+ext)
}

// PaymentFolder returns a fresh folder for a user's payment QR images
func PaymentFolder(userID uuid.UUID) string {
	return JoinFolder("payments", userID.String(), uuid.NewString())
}

// NovelFolder returns the folder holding a novel's images
func NovelFolder(novelID uuid.UUID) string {
	return JoinFolder("novels", novelID.String())
}

// JoinFolder joins key segments with forward slashes, dropping empty ones
func JoinFolder(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
