package loader

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// GLB container format reference:
// https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbChunkBIN  = 0x004E4942 // "BIN\0"
)

const (
	componentUint16  = 5123
	componentUint32  = 5125
	componentFloat32 = 5126
)

var (
	errInvalidGLBMagic   = errors.New("invalid GLB magic number")
	errInvalidGLBVersion = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk  = errors.New("GLB file missing JSON chunk")
	errNoMesh            = errors.New("GLB file contains no triangle mesh")
)

type glbHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

type glbChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32
}

// Trimmed glTF document: only the fields the viewer's mesh path reads.
type glbDocument struct {
	Asset struct {
		Version string `json:"version"`
	} `json:"asset"`
	Meshes []struct {
		Primitives []struct {
			Attributes map[string]int `json:"attributes"`
			Indices    *int           `json:"indices"`
		} `json:"primitives"`
	} `json:"meshes"`
	Accessors []struct {
		BufferView    *int   `json:"bufferView"`
		ByteOffset    int    `json:"byteOffset"`
		ComponentType int    `json:"componentType"`
		Count         int    `json:"count"`
		Type          string `json:"type"`
	} `json:"accessors"`
	BufferViews []struct {
		Buffer     int `json:"buffer"`
		ByteOffset int `json:"byteOffset"`
		ByteLength int `json:"byteLength"`
	} `json:"bufferViews"`
}

// DecodeGLB decodes a binary glTF container into the viewer's mesh model:
// the first triangle primitive's positions and indices. Materials, skins and
// animations present in the file are ignored; campus models are static.
//
// Parameters:
//   - data: the raw GLB file bytes
//
// Returns:
//   - *Model: the decoded mesh model (ID unset; the fetcher fills it)
//   - error: error if the container or mesh data is malformed
func DecodeGLB(data []byte) (*Model, error) {
	if len(data) < 12 {
		return nil, errors.New("GLB file too small")
	}

	r := bytes.NewReader(data)

	var header glbHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != glbMagic {
		return nil, errInvalidGLBMagic
	}
	if header.Version != glbVersion {
		return nil, errInvalidGLBVersion
	}

	var jsonData, binData []byte
	for {
		var chunk glbChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read chunk header: %w", err)
		}
		chunkData := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return nil, fmt.Errorf("failed to read chunk data: %w", err)
		}
		switch chunk.ChunkType {
		case glbChunkJSON:
			jsonData = chunkData
		case glbChunkBIN:
			binData = chunkData
		}
	}
	if jsonData == nil {
		return nil, errMissingJSONChunk
	}

	var doc glbDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, fmt.Errorf("unsupported glTF version %q", doc.Asset.Version)
	}

	return extractMesh(&doc, binData)
}

func extractMesh(doc *glbDocument, bin []byte) (*Model, error) {
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			posIdx, ok := prim.Attributes["POSITION"]
			if !ok || prim.Indices == nil {
				continue
			}

			positions, _, err := accessorBytes(doc, bin, posIdx)
			if err != nil {
				return nil, fmt.Errorf("position accessor: %w", err)
			}

			indices, err := indexData(doc, bin, *prim.Indices)
			if err != nil {
				return nil, fmt.Errorf("index accessor: %w", err)
			}

			return &Model{
				VertexData: positions,
				IndexData:  indices,
				IndexCount: len(indices) / 4,
			}, nil
		}
	}
	return nil, errNoMesh
}

// accessorBytes returns the raw bytes an accessor spans in the binary chunk.
func accessorBytes(doc *glbDocument, bin []byte, idx int) ([]byte, int, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, 0, fmt.Errorf("accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor %d has no buffer view", idx)
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("buffer view %d out of range", *acc.BufferView)
	}
	view := doc.BufferViews[*acc.BufferView]

	size, err := accessorElementSize(acc.ComponentType, acc.Type)
	if err != nil {
		return nil, 0, err
	}
	start := view.ByteOffset + acc.ByteOffset
	end := start + acc.Count*size
	if start < 0 || end > len(bin) {
		return nil, 0, fmt.Errorf("accessor %d spans [%d:%d] beyond binary chunk (%d bytes)", idx, start, end, len(bin))
	}
	return bin[start:end], acc.Count, nil
}

func accessorElementSize(componentType int, accessorType string) (int, error) {
	var componentSize int
	switch componentType {
	case componentUint16:
		componentSize = 2
	case componentUint32, componentFloat32:
		componentSize = 4
	default:
		return 0, fmt.Errorf("unsupported component type %d", componentType)
	}
	var components int
	switch accessorType {
	case "SCALAR":
		components = 1
	case "VEC2":
		components = 2
	case "VEC3":
		components = 3
	case "VEC4":
		components = 4
	default:
		return 0, fmt.Errorf("unsupported accessor type %q", accessorType)
	}
	return componentSize * components, nil
}

// indexData returns the index accessor as uint32 little-endian bytes,
// widening uint16 indices in place.
func indexData(doc *glbDocument, bin []byte, idx int) ([]byte, error) {
	raw, count, err := accessorBytes(doc, bin, idx)
	if err != nil {
		return nil, err
	}
	acc := doc.Accessors[idx]
	switch acc.ComponentType {
	case componentUint32:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	case componentUint16:
		out := make([]byte, count*4)
		for i := 0; i < count; i++ {
			v := binary.LittleEndian.Uint16(raw[i*2:])
			binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported index component type %d", acc.ComponentType)
	}
}
