package pointmorph

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/gekko3d/pointmorph/morphrt/rt/mesh"
	"github.com/google/uuid"
)

type AssetId string

const sdfSourcePrefix = "sdf:"

// MeshSetAsset is every SourceMesh one source produced.
type MeshSetAsset struct {
	Source string
	Meshes []core.SourceMesh
}

// AssetServer resolves mesh sources into SourceMeshes. It is safe for use
// from the loader goroutine and the main loop at the same time.
type AssetServer struct {
	// FitRadius rescales file-based meshes to a common bounding sphere.
	FitRadius float32
	// Cells is the marching cubes resolution for sdf: sources.
	Cells int

	mu       sync.Mutex
	meshSets map[AssetId]MeshSetAsset
	logger   Logger
}

type AssetServerModule struct {
	FitRadius float32
	Cells     int
}

func (mod AssetServerModule) Install(app *App, cmd *Commands) {
	server := NewAssetServer(mod.FitRadius, mod.Cells)
	server.logger = app.Logger().With("assets")
	app.addResources(server)
}

func NewAssetServer(fitRadius float32, cells int) *AssetServer {
	if fitRadius <= 0 {
		fitRadius = 3.5
	}
	if cells <= 0 {
		cells = mesh.DefaultCells
	}
	return &AssetServer{
		FitRadius: fitRadius,
		Cells:     cells,
		meshSets:  make(map[AssetId]MeshSetAsset),
		logger:    NewNopLogger(),
	}
}

// Load resolves one source. Supported forms are sdf:<shape>, .gltf/.glb
// and .vox paths.
func (server *AssetServer) Load(source string) (AssetId, error) {
	meshes, err := server.loadSource(source)
	if err != nil {
		return "", fmt.Errorf("load %q: %w", source, err)
	}

	id := makeAssetId()
	server.mu.Lock()
	server.meshSets[id] = MeshSetAsset{Source: source, Meshes: meshes}
	server.mu.Unlock()

	total := 0
	for _, m := range meshes {
		total += m.Count()
	}
	server.logger.Infof("Loaded %s: %d mesh(es), %d points", source, len(meshes), total)
	return id, nil
}

func (server *AssetServer) MeshSet(id AssetId) (MeshSetAsset, bool) {
	server.mu.Lock()
	defer server.mu.Unlock()
	set, ok := server.meshSets[id]
	return set, ok
}

func (server *AssetServer) loadSource(source string) ([]core.SourceMesh, error) {
	if shape, ok := strings.CutPrefix(source, sdfSourcePrefix); ok {
		m, err := mesh.Procedural(shape, float64(server.FitRadius), server.Cells)
		if err != nil {
			return nil, err
		}
		return []core.SourceMesh{m}, nil
	}

	var meshes []core.SourceMesh
	switch ext := strings.ToLower(filepath.Ext(source)); ext {
	case ".gltf", ".glb":
		loaded, err := mesh.LoadGLTF(source)
		if err != nil {
			return nil, err
		}
		meshes = loaded
	case ".vox":
		vf, err := LoadVoxFile(source)
		if err != nil {
			return nil, err
		}
		for i, model := range vf.Models {
			if len(model.Voxels) == 0 {
				continue
			}
			name := fmt.Sprintf("%s#%d", filepath.Base(source), i)
			meshes = append(meshes, core.NewSourceMesh(name, model.Points()))
		}
		if len(meshes) == 0 {
			return nil, core.ErrNoSourceMeshes
		}
	default:
		return nil, fmt.Errorf("unsupported source type %q", ext)
	}

	for i := range meshes {
		meshes[i] = mesh.Fit(meshes[i], server.FitRadius)
	}
	return meshes, nil
}

// LoadJob is an asynchronous load of several sources.
type LoadJob struct {
	done   chan struct{}
	cancel context.CancelFunc

	meshes []core.SourceMesh
	err    error
}

// LoadAsync loads sources in order on a new goroutine. The resulting meshes
// keep source order, so morph target k is the k-th mesh produced.
func (server *AssetServer) LoadAsync(ctx context.Context, sources []string) *LoadJob {
	ctx, cancel := context.WithCancel(ctx)
	job := &LoadJob{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer close(job.done)
		defer cancel()
		for _, source := range sources {
			if err := ctx.Err(); err != nil {
				job.err = err
				return
			}
			id, err := server.Load(source)
			if err != nil {
				job.err = err
				return
			}
			set, _ := server.MeshSet(id)
			job.meshes = append(job.meshes, set.Meshes...)
		}
		if len(job.meshes) == 0 {
			job.err = core.ErrNoSourceMeshes
		}
	}()
	return job
}

func (job *LoadJob) Done() <-chan struct{} {
	return job.done
}

// Finished reports without blocking whether the job has completed.
func (job *LoadJob) Finished() bool {
	select {
	case <-job.done:
		return true
	default:
		return false
	}
}

// Result blocks until the job completes.
func (job *LoadJob) Result() ([]core.SourceMesh, error) {
	<-job.done
	return job.meshes, job.err
}

func (job *LoadJob) Cancel() {
	job.cancel()
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
