package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/storyrec/pipeline"
)

// 配置驱动前需要 import _ "github.com/rushteam/storyrec/config/builders"，
// 由其 init 注册 recall.catalog、filter.completed、rank.fusion 等内置节点。

// NodeBuilder 根据节点的 config 段构建 Node
type NodeBuilder = pipeline.NodeBuilder

type registry struct {
	mu       sync.RWMutex
	builders map[string]NodeBuilder
}

var nodes = &registry{builders: make(map[string]NodeBuilder)}

// Register 注册一种节点类型；同名重复注册时后者覆盖前者，空名或 nil builder 被忽略。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	nodes.mu.Lock()
	nodes.builders[typeName] = builder
	nodes.mu.Unlock()
}

func (r *registry) lookup(typeName string) (NodeBuilder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[typeName]
	return b, ok
}

// SupportedTypes 返回已注册的节点类型（按字母序）
func SupportedTypes() []string {
	nodes.mu.RLock()
	types := make([]string, 0, len(nodes.builders))
	for t := range nodes.builders {
		types = append(types, t)
	}
	nodes.mu.RUnlock()
	sort.Strings(types)
	return types
}

// DefaultFactory 返回包含当前全部注册类型的 NodeFactory
func DefaultFactory() *pipeline.NodeFactory {
	nodes.mu.RLock()
	defer nodes.mu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range nodes.builders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 在启动时检查 Pipeline 配置：
// 每个节点类型都已注册，且节点的 config 段能成功构建（例如 rank.fusion 权重非负、filter.expr 能编译）。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	fusionAt := -1
	for i, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			return fmt.Errorf("node #%d: missing type", i)
		}
		builder, ok := nodes.lookup(nc.Type)
		if !ok {
			return fmt.Errorf("node #%d: unsupported type %q (supported: %v)", i, nc.Type, SupportedTypes())
		}
		conf := nc.Config
		if conf == nil {
			conf = map[string]interface{}{}
		}
		n, err := builder(conf)
		if err != nil {
			return fmt.Errorf("node #%d (%s): %w", i, nc.Type, err)
		}
		switch {
		case nc.Type == "rank.fusion":
			fusionAt = i
		case fusionAt >= 0 && n.Kind() == pipeline.KindFilter:
			return fmt.Errorf("node #%d (%s): filters must come before rank.fusion (node #%d)", i, nc.Type, fusionAt)
		}
	}
	return nil
}
