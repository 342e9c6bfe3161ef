package service

import (
	"fmt"
	"strings"
	"time"

	"macro_trader/internal/models"
	"macro_trader/internal/runner"
	"macro_trader/internal/strategy"
)

func formatDebug(trigger string, polling bool, lock models.TradeLock, st runner.Snapshot, now time.Time) string {
	var b strings.Builder
	b.WriteString("🔧 Debug info\n")
	fmt.Fprintf(&b, "Symbol: %s\n", orNone(trigger))
	fmt.Fprintf(&b, "Trading: %s\n", map[bool]string{true: "Running", false: "Stopped"}[polling])
	if lock.IsExecuting {
		fmt.Fprintf(&b, "Macro: ✅ (%s, %ds elapsed)\n", lock.ExecutingType, int(now.Sub(lock.StartedAt).Seconds()))
	} else {
		b.WriteString("Macro: ❌\n")
	}
	fmt.Fprintf(&b, "Last trade: %s\n", clock(lock.LastTradeAt))
	b.WriteString(formatPosition(st))
	b.WriteString("\nCommands: TEST, DEBUG, PARSE <text>, SCREENSHOT, UNLOCK")
	return b.String()
}

func formatPosition(st runner.Snapshot) string {
	p := st.Position
	if !p.IsActive {
		return "Position: none\n"
	}
	s := fmt.Sprintf("Position: %s @ %s since %s\n", p.Type, strategy.FormatPrice(p.EntryPrice, p.EntryPrice), clock(p.EntryTime))
	if st.Exit.MaxPrice != nil {
		s += fmt.Sprintf("Best price: %s\n", strategy.FormatPrice(*st.Exit.MaxPrice, p.EntryPrice))
	}
	if st.Exit.TrailingStopPrice != nil {
		s += fmt.Sprintf("Trailing stop: %s\n", strategy.FormatPrice(*st.Exit.TrailingStopPrice, p.EntryPrice))
	}
	var slices []string
	for i, pct := range st.SplitEntry.Positions {
		if pct <= 0 {
			continue
		}
		slices = append(slices, fmt.Sprintf("%s%% %s", f2(pct), onOff(st.SplitEntry.ExecutedEntries[i])))
	}
	if len(slices) > 0 {
		s += "Split entry: " + strings.Join(slices, ", ") + "\n"
	}
	return s
}

func formatParse(input string, sig models.Signal, parsed bool, verr error) string {
	var b strings.Builder
	b.WriteString("🧪 Parsing test\n")
	fmt.Fprintf(&b, "Input: %s\n", input)
	fmt.Fprintf(&b, "Parsed: %s\n", onOff(parsed))
	if parsed {
		fmt.Fprintf(&b, "Symbol: %s\n", sig.Symbol)
		fmt.Fprintf(&b, "Action: %s\n", sig.Side)
	}
	fmt.Fprintf(&b, "Valid: %s\n", onOff(parsed && verr == nil))
	if parsed && verr != nil {
		fmt.Fprintf(&b, "Error: %v\n", verr)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatUnlock(prev models.TradeLock) string {
	if prev.IsExecuting {
		return fmt.Sprintf("🔓 Macro lock released successfully!\nPrevious state: %s executing\nReady to process new trading signals.", prev.ExecutingType)
	}
	return "ℹ️ Macro was not locked.\nCurrent state: Normal (ready to process trading signals)"
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
