// Package asset holds the identity shared by meshes, materials and textures.
package asset

import (
	"github.com/google/uuid"
)

// Id identifies a GPU facing resource for its whole lifetime. Backends key
// their uploaded buffers and pipelines by it.
type Id string

func NewId() Id {
	return Id(uuid.NewString())
}
