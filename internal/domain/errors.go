package domain

import "errors"

// 错误分类：
//   - ErrInvalidArgument 调用方参数非法，原样返回，不重试
//   - ErrNotFound        引用的实体不存在，不重试
//   - ErrTransient       存储层暂时性故障（死锁/序列化冲突/断连），事务包装器可重试
// 其余错误视为 Internal，记录日志后以不泄露细节的方式返回
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrTransient       = errors.New("transient storage failure")
)
