package facet

import (
	"errors"
	"fmt"
)

// ErrCategoryNotFound 起始分类不存在
var ErrCategoryNotFound = errors.New("分类不存在")

// CyclicCategoryError 分类父链出现环
type CyclicCategoryError struct {
	CategoryID int64   // 重复出现的分类
	Path       []int64 // 从起点到重复点的访问路径
}

func (e *CyclicCategoryError) Error() string {
	return fmt.Sprintf("分类父链存在环: category=%d path=%v", e.CategoryID, e.Path)
}

// MalformedFilterError 筛选器绑定数据不合法
type MalformedFilterError struct {
	Reason string
}

func (e *MalformedFilterError) Error() string {
	return "筛选器配置错误: " + e.Reason
}

// IsCyclic 判断是否为成环错误
func IsCyclic(err error) bool {
	var ce *CyclicCategoryError
	return errors.As(err, &ce)
}

// IsMalformed 判断是否为配置错误
func IsMalformed(err error) bool {
	var me *MalformedFilterError
	return errors.As(err, &me)
}
