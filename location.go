package contraptions

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

// Location identifies the block a contraption is placed on.
// At most one live contraption exists per Location.
type Location struct {
	World string   `json:"world"`
	Pos   cube.Pos `json:"pos"`
}

// At returns the location of block (x, y, z) in world.
func At(world string, x, y, z int) Location {
	return Location{World: world, Pos: cube.Pos{x, y, z}}
}

// Vec3 returns the centre of the block.
func (l Location) Vec3() mgl64.Vec3 {
	return l.Pos.Vec3Centre()
}

// Within reports whether the block centre lies within radius of point in world.
func (l Location) Within(world string, point mgl64.Vec3, radius float64) bool {
	return l.World == world && l.Vec3().Sub(point).Len() <= radius
}

func (l Location) String() string {
	return fmt.Sprintf("%s(%d, %d, %d)", l.World, l.Pos.X(), l.Pos.Y(), l.Pos.Z())
}
