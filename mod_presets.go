package lightbeam

import (
	"encoding/json"
	"os"
)

type PresetData struct {
	Beams []BeamDef `json:"beams"`
}

// SaveBeamPreset writes every beam of the world as a BeamDef.
func SaveBeamPreset(world *BeamWorld, filename string) error {
	var beams []BeamDef

	for _, b := range world.Beams() {
		params := b.Params
		params.OverrideTexture = nil
		def := BeamDef{
			Name:        b.Name,
			Position:    b.Transform.Position,
			Rotation:    b.Transform.Rotation,
			Scale:       b.Transform.Scale,
			Params:      &params,
			TexturePath: world.texturePath(b.Params.OverrideTexture),
			Persistent:  b.Persistent,
		}
		if b.Occlusion != nil {
			occ := *b.Occlusion
			def.Occlusion = &occ
		}
		beams = append(beams, def)
	}

	preset := PresetData{Beams: beams}
	bytes, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, bytes, 0644)
}

// LoadBeamPreset queues a spawn for every beam in the file.
func LoadBeamPreset(cmd *Commands, filename string) ([]BeamId, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var preset PresetData
	if err := json.Unmarshal(bytes, &preset); err != nil {
		return nil, err
	}

	return cmd.SpawnScene(SceneDef{Beams: preset.Beams}), nil
}
