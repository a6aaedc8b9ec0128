package models

import "fmt"

// ConfigurationError 配置缺失/非法错误
// 与传输类错误区分记录：它意味着需要运维人员修复配置，
// 缺失的阈值绝不能被当作"一切正常"
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}
