package utils

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// DiskStatus 下载目录所在磁盘的空间信息
type DiskStatus struct {
	Path        string
	Total       uint64 // 字节
	Free        uint64 // 字节
	UsedPercent float64
}

// CheckDiskSpace 检查下载目录所在磁盘剩余空间
// minFreeMB <= 0 时只记录不告警;低于阈值时返回的 low 为 true
func CheckDiskSpace(path string, minFreeMB int) (status DiskStatus, low bool, err error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return DiskStatus{}, false, fmt.Errorf("读取磁盘信息失败 [%s]: %w", path, err)
	}

	status = DiskStatus{
		Path:        path,
		Total:       usage.Total,
		Free:        usage.Free,
		UsedPercent: usage.UsedPercent,
	}

	freeMB := float64(usage.Free) / (1024 * 1024)
	Debugf("磁盘剩余空间: %.0f MB (%s, 已用 %.1f%%)", freeMB, path, usage.UsedPercent)

	if minFreeMB > 0 && freeMB < float64(minFreeMB) {
		Warnf("⚠️  磁盘剩余空间不足: %.0f MB < %d MB (%s)", freeMB, minFreeMB, path)
		return status, true, nil
	}
	return status, false, nil
}

// LogSystemMemory 记录系统内存,浏览器启动前调用
func LogSystemMemory() {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		Logger.Warn().Err(err).Msg("获取系统内存失败")
		return
	}
	Logger.Debug().
		Str("total", fmt.Sprintf("%.2f GB", float64(vmStat.Total)/(1024*1024*1024))).
		Str("available", fmt.Sprintf("%.2f GB", float64(vmStat.Available)/(1024*1024*1024))).
		Msg("系统内存")
}
