package pointmorph

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	VOXMagicNumber = "VOX "
)

var ErrNotVox = errors.New("not a valid VOX file")

type Voxel struct {
	X, Y, Z, ColorIndex byte
}

type VoxModel struct {
	SizeX, SizeY, SizeZ uint32
	Voxels              []Voxel
}

type VoxPalette [256][4]byte // RGBA colors

type VoxFile struct {
	Version int
	Models  []VoxModel
	Palette VoxPalette
}

func LoadVoxFile(filename string) (*VoxFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	vf, err := ReadVox(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return vf, nil
}

// ReadVox parses a MagicaVoxel file. Only geometry and palette chunks are
// interpreted; scene graph and material chunks are skipped.
func ReadVox(r io.Reader) (*VoxFile, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != VOXMagicNumber {
		return nil, ErrNotVox
	}

	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}

	voxFile := &VoxFile{
		Version: int(version),
		Palette: defaultPalette(),
	}

	// SIZE always precedes its XYZI chunk.
	pendingSize := false
	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		var chunkSize, childrenSize int32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &childrenSize); err != nil {
			return nil, err
		}
		if chunkSize < 0 || childrenSize < 0 {
			return nil, fmt.Errorf("chunk %q has negative size", chunkID[:])
		}

		chunkData := make([]byte, chunkSize)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return nil, err
		}

		switch string(chunkID[:]) {
		case "MAIN":
			// MAIN chunk contains other chunks
			continue
		case "SIZE":
			if len(chunkData) < 12 {
				return nil, errors.New("SIZE chunk too small")
			}
			voxFile.Models = append(voxFile.Models, VoxModel{
				SizeX: binary.LittleEndian.Uint32(chunkData[0:4]),
				SizeY: binary.LittleEndian.Uint32(chunkData[4:8]),
				SizeZ: binary.LittleEndian.Uint32(chunkData[8:12]),
			})
			pendingSize = true
		case "XYZI":
			if !pendingSize {
				return nil, errors.New("XYZI chunk without SIZE")
			}
			pendingSize = false
			if len(chunkData) < 4 {
				return nil, errors.New("XYZI chunk too small")
			}
			model := &voxFile.Models[len(voxFile.Models)-1]
			numVoxels := int(binary.LittleEndian.Uint32(chunkData[:4]))
			if 4+numVoxels*4 > len(chunkData) {
				return nil, errors.New("XYZI chunk data overflow")
			}
			model.Voxels = make([]Voxel, numVoxels)
			for i := 0; i < numVoxels; i++ {
				offset := 4 + i*4
				model.Voxels[i] = Voxel{
					X:          chunkData[offset],
					Y:          chunkData[offset+1],
					Z:          chunkData[offset+2],
					ColorIndex: chunkData[offset+3],
				}
			}
		case "RGBA":
			for i := 0; i < 255; i++ {
				offset := i * 4
				if offset+3 >= len(chunkData) {
					break
				}
				copy(voxFile.Palette[i+1][:], chunkData[offset:offset+4])
			}
		}
	}

	return voxFile, nil
}

// Points returns voxel centers centered on the model's bounding box, in a
// Y-up frame (MagicaVoxel is Z-up).
func (m VoxModel) Points() []float32 {
	cx := float32(m.SizeX) / 2
	cy := float32(m.SizeY) / 2
	cz := float32(m.SizeZ) / 2
	points := make([]float32, 0, len(m.Voxels)*3)
	for _, v := range m.Voxels {
		points = append(points,
			float32(v.X)+0.5-cx,
			float32(v.Z)+0.5-cz,
			-(float32(v.Y) + 0.5 - cy),
		)
	}
	return points
}

func defaultPalette() VoxPalette {
	var palette VoxPalette
	for i := range palette {
		palette[i] = [4]uint8{255, 255, 255, 255} // white as fallback
	}
	return palette
}
