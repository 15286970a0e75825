package util

import (
	"sync/atomic"

	snowflake "github.com/yockii/snowflake_ext"
)

var idGenerator *snowflake.Worker

// 未初始化时使用的自增序号
var fallbackID atomic.Uint64

// InitNode 初始化ID生成器
func InitNode(nodeID uint64) error {
	var err error
	idGenerator, err = snowflake.NewSnowflake(nodeID)
	if err != nil {
		return err
	}
	return nil
}

// NewID 生成新的ID
func NewID() uint64 {
	if idGenerator == nil {
		return fallbackID.Add(1)
	}
	return idGenerator.NextId()
}
