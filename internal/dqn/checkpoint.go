package dqn

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mmai/trictrac/internal/fileutil"
)

// Checkpoints are two sibling files: <path>.bin holds the raw parameters
// in a versioned little-endian layout, <path>_config.json the Config they
// were trained with. Loading refuses a checkpoint whose state, action or
// hidden size does not match the expected configuration.

var checkpointMagic = [4]byte{'T', 'T', 'R', 'C'}

const checkpointVersion = uint32(1)

// SaveCheckpoint writes the network and its config atomically.
func SaveCheckpoint(path string, net *Network, cfg Config) error {
	var buf bytes.Buffer
	buf.Write(checkpointMagic[:])
	header := []uint32{
		checkpointVersion,
		uint32(net.InputSize),
		uint32(net.HiddenSize),
		uint32(net.OutputSize),
	}
	for _, v := range header {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	for _, p := range net.params() {
		if err := binary.Write(&buf, binary.LittleEndian, p); err != nil {
			return err
		}
	}
	if err := fileutil.WriteFileAtomic(path+".bin", buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}

	configJSON, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path+"_config.json", configJSON, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint config: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint, validating its config against the
// expected environment sizes.
func LoadCheckpoint(path string) (*Network, Config, error) {
	configJSON, err := os.ReadFile(path + "_config.json")
	if err != nil {
		return nil, Config{}, fmt.Errorf("reading checkpoint config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return nil, Config{}, fmt.Errorf("parsing checkpoint config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, Config{}, fmt.Errorf("refusing checkpoint %s: %w", path, err)
	}

	data, err := os.ReadFile(path + ".bin")
	if err != nil {
		return nil, Config{}, fmt.Errorf("reading checkpoint: %w", err)
	}
	r := bytes.NewReader(data)
	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil || magic != checkpointMagic {
		return nil, Config{}, fmt.Errorf("checkpoint %s: bad magic", path)
	}
	var version, inSize, hiddenSize, outSize uint32
	for _, dst := range []*uint32{&version, &inSize, &hiddenSize, &outSize} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, Config{}, fmt.Errorf("checkpoint %s: short header: %w", path, err)
		}
	}
	if version != checkpointVersion {
		return nil, Config{}, fmt.Errorf("checkpoint %s: unsupported version %d", path, version)
	}
	if int(inSize) != cfg.StateSize || int(hiddenSize) != cfg.HiddenSize || int(outSize) != cfg.ActionSize {
		return nil, Config{}, fmt.Errorf("refusing checkpoint %s: sizes %dx%dx%d do not match config %dx%dx%d",
			path, inSize, hiddenSize, outSize, cfg.StateSize, cfg.HiddenSize, cfg.ActionSize)
	}

	net := NewNetwork(int(inSize), int(hiddenSize), int(outSize), nil)
	for _, p := range net.params() {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, Config{}, fmt.Errorf("checkpoint %s: short parameter data: %w", path, err)
		}
	}
	return net, cfg, nil
}
