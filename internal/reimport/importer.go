// Package reimport rebuilds a mesh resource from an edited scene file and
// writes it, with its textures, into a patch archive.
//
// A run joins the rebuilt submeshes against the resource being replaced to
// carry engine metadata forward, repairs normal orientation, and applies a
// deletion list. Runs stop at the first failure and report every step to a
// console.Console.
package reimport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/primio/internal/config"
	"github.com/Faultbox/primio/internal/console"
	"github.com/Faultbox/primio/internal/scene"
	"github.com/Faultbox/primio/pkg/borg"
	"github.com/Faultbox/primio/pkg/prim"
	"github.com/Faultbox/primio/pkg/rid"
	"github.com/Faultbox/primio/pkg/rpkg"
)

// Graph resolves resources and their references.
type Graph interface {
	Contains(id rid.ID) bool
	ResourceType(id rid.ID) (string, error)
	Resource(id rid.ID) ([]byte, error)
	References(id rid.ID, types ...string) ([]rpkg.Reference, error)
	IDsByType(typ string) []rid.ID
	SourceStreamName(id rid.ID) (string, error)
}

// SceneLoader builds a scene asset from a file. bones maps bone names to
// skeleton indices and is nil for unrigged resources.
type SceneLoader interface {
	Load(path string, bones map[string]int) (*scene.Asset, error)
}

// Archive collects the records of the patch being written.
type Archive interface {
	InsertFile(id rid.ID, typ string, data []byte, refs []rpkg.Reference) error
	AddDeletions(ids ...rid.ID)
	Write(path string) error
}

// Options are the per-run import toggles.
type Options struct {
	ImportTextures   bool
	MaxLODRange      bool
	OverrideMaterial bool
	MaterialID       uint16
	OriginalBoneInfo bool
	InvertX          bool
	InvertY          bool
	InvertZ          bool
	AutoOrient       bool
}

// OptionsFromConfig converts validated import settings.
func OptionsFromConfig(c config.ImportConfig) Options {
	return Options{
		ImportTextures:   c.ImportTextures,
		MaxLODRange:      c.MaxLODRange,
		OverrideMaterial: c.OverrideMaterial,
		MaterialID:       uint16(c.MaterialID),
		OriginalBoneInfo: c.OriginalBoneInfo,
		InvertX:          c.InvertNormalX,
		InvertY:          c.InvertNormalY,
		InvertZ:          c.InvertNormalZ,
		AutoOrient:       c.AutoOrientNormals,
	}
}

// Request describes one import.
type Request struct {
	ScenePath    string
	OutputPath   string
	DeletionText string
	Options      Options
}

// Result summarizes a successful import.
type Result struct {
	RunID      string
	ID         rid.ID
	OutputPath string
	Submeshes  int
	Vertices   int
	Unmatched  []string
	Transforms map[string]AxisTransform
	Textures   []rid.ID
	Deletions  []rid.ID
}

// Importer runs imports against a resource graph.
type Importer struct {
	graph      Graph
	loader     SceneLoader
	console    console.Console
	log        *zap.Logger
	newArchive func() Archive
}

// New creates an importer writing RPKG patch archives.
func New(graph Graph, loader SceneLoader, con console.Console, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{
		graph:      graph,
		loader:     loader,
		console:    con,
		log:        log,
		newArchive: func() Archive { return rpkg.New() },
	}
}

// DefaultOutputPath returns the next free patch name in the family of the
// archive that provides id, inside dir.
func DefaultOutputPath(graph Graph, dir string, id rid.ID) (string, error) {
	source, err := graph.SourceStreamName(id)
	if err != nil {
		return "", err
	}
	name, err := rpkg.NextPatchName(dir, source)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// run carries the state of one Run call.
type run struct {
	*Importer
	req    Request
	log    *zap.Logger
	result *Result
}

func (r *run) fail(err *Error) (*Result, error) {
	r.console.Error(err.Error())
	if err.Fatal() {
		r.log.Error("import aborted", zap.String("kind", err.Kind.String()), zap.String("stack", fmt.Sprintf("%+v", err.Err)))
	} else {
		r.log.Warn("import failed", zap.String("kind", err.Kind.String()), zap.Error(err))
	}
	return nil, err
}

func (r *run) nonFatal(op string, err error) {
	e := newError(KindNonFatal, op, err)
	r.console.Error(e.Error())
	r.log.Warn("non-fatal import error", zap.String("op", op), zap.Error(err))
}

// Run executes one import. The first failure aborts the run and is returned
// as an *Error; an output file may be left partially written when the
// archive write itself fails.
func (imp *Importer) Run(req Request) (*Result, error) {
	runID := uuid.NewString()
	r := &run{
		Importer: imp,
		req:      req,
		log:      imp.log.With(zap.String("run", runID)),
		result:   &Result{RunID: runID, OutputPath: req.OutputPath, Transforms: make(map[string]AxisTransform)},
	}

	if err := validateRequest(req); err != nil {
		return r.fail(newError(KindInputValidation, "validate paths", err))
	}

	id, err := rid.FromPath(req.ScenePath)
	if err != nil {
		return r.fail(newError(KindInputValidation, "resolve resource id", err))
	}
	if !imp.graph.Contains(id) {
		return r.fail(newError(KindInputValidation, "resolve resource id", fmt.Errorf("resource %s does not exist", id)))
	}
	r.result.ID = id
	r.console.Status(fmt.Sprintf("Import: %s -> %s", req.ScenePath, req.OutputPath))
	r.log.Info("import started", zap.Stringer("id", id), zap.String("scene", req.ScenePath))

	rigged, bones, rerr := r.loadSkeleton(id)
	if rerr != nil {
		return r.fail(rerr)
	}

	asset, err := imp.loader.Load(req.ScenePath, bones)
	if err != nil {
		return r.fail(newError(KindAssetConstruction, "load scene", err))
	}
	r.console.Status(fmt.Sprintf("Loaded scene with %d meshes", len(asset.Meshes)))

	typ, original, rerr := r.loadOriginal(id)
	if rerr != nil {
		return r.fail(rerr)
	}

	rebuilt := r.rebuild(asset, original, rigged)
	r.fixNormals(rebuilt)
	r.result.Vertices = rebuilt.TotalVertexCount()
	r.console.Status(fmt.Sprintf("Rebuilt %d submeshes, %d vertices", len(rebuilt.Submeshes), r.result.Vertices))

	data, err := rebuilt.Encode()
	if err != nil {
		return r.fail(newError(KindSerialization, "encode mesh", err))
	}
	refs, err := imp.graph.References(id)
	if err != nil {
		return r.fail(newError(KindLookup, "resource references", err))
	}
	archive := imp.newArchive()
	if err := archive.InsertFile(id, typ, data, refs); err != nil {
		return r.fail(newError(KindSerialization, "insert mesh", err))
	}

	if req.Options.ImportTextures {
		r.importTextures(id, filepath.Dir(req.ScenePath), archive)
	}

	r.result.Deletions = CompileDeletionList(req.DeletionText)
	archive.AddDeletions(r.result.Deletions...)
	if n := len(r.result.Deletions); n > 0 {
		r.console.Status(fmt.Sprintf("Deletion list: %d resources", n))
	}

	if err := archive.Write(req.OutputPath); err != nil {
		return r.fail(newError(KindArchiveWrite, "write archive", err))
	}

	r.console.Status("Import finished: " + req.OutputPath)
	r.log.Info("import finished",
		zap.String("output", req.OutputPath),
		zap.Int("submeshes", r.result.Submeshes),
		zap.Int("vertices", r.result.Vertices),
		zap.Int("textures", len(r.result.Textures)),
		zap.Int("deletions", len(r.result.Deletions)))
	return r.result, nil
}

func validateRequest(req Request) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ScenePath, validation.Required, validation.By(isRegularFile)),
		validation.Field(&req.OutputPath, validation.Required, validation.By(isOutputFile)),
	)
}

func isRegularFile(value any) error {
	path, _ := value.(string)
	info, err := os.Stat(path)
	if err != nil {
		return errors.New("file does not exist")
	}
	if !info.Mode().IsRegular() {
		return errors.New("not a regular file")
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.New("file is not readable")
	}
	return f.Close()
}

func isOutputFile(value any) error {
	path, _ := value.(string)
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) || strings.HasSuffix(path, string(filepath.Separator)) {
		return errors.New("missing file name")
	}
	if ext := filepath.Ext(base); ext == "" || ext == base {
		return errors.New("missing file extension")
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil || !info.IsDir() {
		return errors.New("directory does not exist")
	}
	return nil
}

// loadSkeleton returns the bone map of the resource's skeleton, if any.
func (r *run) loadSkeleton(id rid.ID) (bool, map[string]int, *Error) {
	skels, err := r.graph.References(id, borg.ResourceType)
	if err != nil {
		return false, nil, newError(KindLookup, "skeleton references", err)
	}
	switch len(skels) {
	case 0:
		return false, nil, nil
	case 1:
	default:
		return false, nil, invariant("skeleton references", "resource %s references %d skeletons", id, len(skels))
	}

	data, err := r.graph.Resource(skels[0].ID)
	if err != nil {
		return false, nil, newError(KindLookup, "load skeleton", err)
	}
	sk, err := borg.Parse(data)
	if err != nil {
		return false, nil, newError(KindLookup, "parse skeleton "+skels[0].ID.String(), err)
	}
	r.console.Status(fmt.Sprintf("Skeleton %s: %d bones", skels[0].ID, len(sk.Bones)))
	return true, sk.BoneIndexMap(), nil
}

func (r *run) loadOriginal(id rid.ID) (string, *prim.Mesh, *Error) {
	typ, err := r.graph.ResourceType(id)
	if err != nil {
		return "", nil, newError(KindLookup, "resource type", err)
	}
	if typ != prim.ResourceType {
		return "", nil, newError(KindLookup, "load original", fmt.Errorf("resource %s is %s, not %s", id, typ, prim.ResourceType))
	}
	data, err := r.graph.Resource(id)
	if err != nil {
		return "", nil, newError(KindLookup, "load original", err)
	}
	original, err := prim.Parse(data)
	if err != nil {
		return "", nil, newError(KindLookup, "parse original", err)
	}
	return typ, original, nil
}

// rebuild turns scene meshes into submeshes, carrying metadata forward from
// the original and applying the manifest and option overrides.
func (r *run) rebuild(asset *scene.Asset, original *prim.Mesh, rigged bool) *prim.Mesh {
	opts := r.req.Options
	join := NewJoinTable(original)
	rebuilt := &prim.Mesh{}

	for _, m := range asset.Meshes {
		sm := prim.NewSubmesh(m.Name, m.Positions, m.Normals, m.Indices)
		if m.Joints != nil {
			sm.BoneIndices = m.Joints
			sm.Subtype = prim.SubtypeWeighted
		}
		if !join.Apply(sm, opts.OriginalBoneInfo) {
			r.result.Unmatched = append(r.result.Unmatched, sm.Name)
		}
		rebuilt.Submeshes = append(rebuilt.Submeshes, sm)
	}
	if len(r.result.Unmatched) > 0 {
		r.console.Status("Submeshes without legacy metadata: " + strings.Join(r.result.Unmatched, ", "))
	}

	ApplyManifest(rebuilt, original, rigged)
	for _, sm := range rebuilt.Submeshes {
		if opts.MaxLODRange {
			sm.LODMask = prim.MaxLODMask
		}
		if opts.OverrideMaterial {
			sm.MaterialID = opts.MaterialID
		}
	}
	r.result.Submeshes = len(rebuilt.Submeshes)
	return rebuilt
}

func (r *run) fixNormals(mesh *prim.Mesh) {
	opts := r.req.Options
	for _, sm := range mesh.Submeshes {
		InvertAxes(sm.Normals, opts.InvertX, opts.InvertY, opts.InvertZ)
		LegacyRelabel.Apply(sm.Normals)
		if !opts.AutoOrient {
			continue
		}
		t, err := Realign(sm)
		if err != nil {
			r.nonFatal("realign normals of "+sm.Name, err)
			continue
		}
		r.result.Transforms[sm.Name] = t
		if t != Identity {
			r.console.Status(fmt.Sprintf("Realigned normals of %s with %s", sm.Name, t))
		}
	}
}
