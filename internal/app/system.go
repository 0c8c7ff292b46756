package app

import (
	"context"
	"fmt"

	"procmon/internal/format"
)

// SystemMemory is the host-wide memory picture shown above process tables.
type SystemMemory struct {
	Total       uint64
	Used        uint64
	Available   uint64
	UsedPercent float64

	SwapTotal       uint64
	SwapUsed        uint64
	SwapUsedPercent float64
}

// SystemMemory reads physical memory and swap usage.
func (a *App) SystemMemory(ctx context.Context) (SystemMemory, error) {
	vm, err := virtualMemory(ctx)
	if err != nil {
		return SystemMemory{}, fmt.Errorf("read system memory: %w", err)
	}
	out := SystemMemory{
		Total:       vm.Total,
		Used:        vm.Used,
		Available:   vm.Available,
		UsedPercent: vm.UsedPercent,
	}
	// Swap is optional; hosts without it report N/A.
	if sw, err := swapMemory(ctx); err == nil {
		out.SwapTotal = sw.Total
		out.SwapUsed = sw.Used
		out.SwapUsedPercent = sw.UsedPercent
	}
	return out, nil
}

// MemoryLine renders "System Memory: used / total (x% used, avail available)".
func (s SystemMemory) MemoryLine() string {
	return fmt.Sprintf("System Memory: %s / %s (%.1f%% used, %s available)",
		format.Bytes(s.Used), format.Bytes(s.Total), s.UsedPercent, format.Bytes(s.Available))
}

// SwapLine renders the swap summary, or N/A when there is no swap.
func (s SystemMemory) SwapLine() string {
	if s.SwapTotal == 0 {
		return "Swap: N/A"
	}
	return fmt.Sprintf("Swap: %s / %s (%.1f%% used)",
		format.Bytes(s.SwapUsed), format.Bytes(s.SwapTotal), s.SwapUsedPercent)
}
