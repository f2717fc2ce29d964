package main

import (
	"fmt"
	"time"
)

// ValidateFlags 验证滚动相关参数,0表示使用配置文件的值
func ValidateFlags(scrollDistance int, scrollPause time.Duration, stallThreshold int, maxIterations int) error {
	if scrollDistance < 0 || scrollDistance > 10000 {
		return fmt.Errorf("滚动距离必须在0-10000之间,当前值: %d", scrollDistance)
	}

	if scrollPause < 0 || scrollPause > time.Minute {
		return fmt.Errorf("滚动等待时间必须在0-60秒之间,当前值: %v", scrollPause)
	}

	if stallThreshold < 0 || stallThreshold > 100 {
		return fmt.Errorf("停滞阈值必须在0-100之间,当前值: %d", stallThreshold)
	}

	if maxIterations < 0 {
		return fmt.Errorf("最大滚动轮数不能为负数,当前值: %d", maxIterations)
	}

	return nil
}
