package reimport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/primio/pkg/rid"
	"github.com/Faultbox/primio/pkg/rpkg"
	"github.com/Faultbox/primio/pkg/texd"
)

// TextureDependencies follows mesh -> material instances -> textures ->
// raw textures and returns the raw texture ids, first seen first.
func TextureDependencies(graph Graph, id rid.ID) ([]rid.ID, error) {
	var out []rid.ID
	seen := make(map[rid.ID]bool)

	materials, err := graph.References(id, rpkg.TypeMaterialInstance)
	if err != nil {
		return nil, err
	}
	for _, mati := range materials {
		textures, err := graph.References(mati.ID, rpkg.TypeTexture)
		if err != nil {
			return nil, fmt.Errorf("material instance %s: %w", mati.ID, err)
		}
		for _, text := range textures {
			raws, err := graph.References(text.ID, rpkg.TypeRawTexture)
			if err != nil {
				return nil, fmt.Errorf("texture %s: %w", text.ID, err)
			}
			for _, raw := range raws {
				if !seen[raw.ID] {
					seen[raw.ID] = true
					out = append(out, raw.ID)
				}
			}
		}
	}
	return out, nil
}

// importTextures adds every raw texture with a "<id>.tga" file in dir to the
// archive. Failures are reported and skipped.
func (r *run) importTextures(id rid.ID, dir string, archive Archive) {
	ids, err := TextureDependencies(r.graph, id)
	if err != nil {
		r.nonFatal("texture dependencies", err)
		return
	}

	for _, texID := range ids {
		path := filepath.Join(dir, texID.String()+".tga")
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			r.log.Debug("no texture file", zap.String("path", path))
			continue
		}

		if err := r.importTexture(texID, path, archive); err != nil {
			r.nonFatal("import texture "+texID.String(), err)
			continue
		}
		r.result.Textures = append(r.result.Textures, texID)
		r.console.Status("Imported texture " + filepath.Base(path))
	}
}

func (r *run) importTexture(id rid.ID, path string, archive Archive) error {
	tex, err := texd.LoadTGAFile(id, path)
	if err != nil {
		return err
	}
	data, err := tex.Encode()
	if err != nil {
		return err
	}
	// Rebuilt raw textures carry no dependency edges, whatever the
	// archived record lists.
	return archive.InsertFile(id, texd.ResourceType, data, nil)
}
