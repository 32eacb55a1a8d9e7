package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/storyrec/core"
)

// FileLoader 从 JSON 或 YAML 文件读取快照：
//
//	{"stories": [...], "users": [...], "history": [...]}
type FileLoader struct {
	Path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

func (l *FileLoader) Name() string { return "file" }

// Load 每次调用都重新读取文件，配合热加载使用
func (l *FileLoader) Load(_ context.Context) (*core.Snapshot, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, loadError("read snapshot", err)
	}

	snap := &core.Snapshot{}
	switch strings.ToLower(filepath.Ext(l.Path)) {
	case ".json":
		err = json.Unmarshal(data, snap)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, snap)
	default:
		return nil, core.NewDomainError(core.ModuleLoader, core.ErrorCodeInvalidInput,
			fmt.Sprintf("unsupported snapshot extension: %s", l.Path))
	}
	if err != nil {
		return nil, core.NewDomainError(core.ModuleLoader, core.ErrorCodeInvalidInput,
			fmt.Sprintf("parse snapshot %s: %v", l.Path, err))
	}
	return snap, nil
}
