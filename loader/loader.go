// Package loader 负责从外部数据源一次性加载快照（故事、用户、阅读历史三张表）。
package loader

import (
	"context"

	"github.com/rushteam/storyrec/core"
)

// Loader 加载一份完整快照
type Loader interface {
	Name() string
	Load(ctx context.Context) (*core.Snapshot, error)
}

func loadError(msg string, err error) error {
	return core.NewDomainError(core.ModuleLoader, core.ErrorCodeUnavailable, msg+": "+err.Error())
}
