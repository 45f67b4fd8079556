package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hrygo/poplog/server/stats"
	"github.com/hrygo/poplog/store"
)

// reportDays is how many of the latest recorded days the report tabulates.
const reportDays = 7

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown renders r as a Markdown document.
func Markdown(r *stats.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 排便週報\n\n")
	fmt.Fprintf(&b, "範圍：%s ・ 產生於 %s\n\n", scopeLabel(r.Scope), r.AsOf.Format("2006-01-02 15:04"))

	b.WriteString("## 概況\n\n")
	fmt.Fprintf(&b, "- 總筆數：%d\n", r.Total)
	fmt.Fprintf(&b, "- 近 7 天紀錄天數：%d\n", r.Signals.RecentDays)
	fmt.Fprintf(&b, "- 近 14 天紀錄天數：%d\n", r.ActiveDays14)
	fmt.Fprintf(&b, "- 連續紀錄：%d 天\n", r.CurrentStreak)
	fmt.Fprintf(&b, "- 最長斷層：%d 天\n", r.LongestGap)
	fmt.Fprintf(&b, "- 偏硬比例：%.0f%% ・ 水樣比例：%.0f%%\n\n", r.Signals.LowRate*100, r.Signals.HighRate*100)

	days := r.Days
	if len(days) > reportDays {
		days = days[len(days)-reportDays:]
	}
	if len(days) > 0 {
		b.WriteString("## 每日紀錄\n\n")
		b.WriteString("| 日期 | 次數 | 主要型態 | 時間 |\n")
		b.WriteString("| --- | ---: | --- | --- |\n")
		for _, d := range days {
			dominant := d.Dominant.Label()
			if dominant == "" {
				dominant = "-"
			}
			fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", d.Date, d.Total, dominant, strings.Join(d.Times, " "))
		}
		fmt.Fprintf(&b, "\n型態：%s\n\n", CategoryLegend())
	}

	if len(r.Weeks) > 0 {
		b.WriteString("## 每週次數\n\n")
		for _, w := range r.Weeks {
			fmt.Fprintf(&b, "- %s：%d\n", w.Key, w.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## 健康建議\n\n")
	for _, text := range Explain(r) {
		fmt.Fprintf(&b, "- **%s**：%s\n", text.Title, text.Tip)
	}
	return b.String()
}

// WriteHTML renders r to HTML.
func WriteHTML(w io.Writer, r *stats.Report) error {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(r)), &buf); err != nil {
		return errors.Wrap(err, "failed to render report")
	}
	_, err := buf.WriteTo(w)
	return err
}

func scopeLabel(s stats.Scope) string {
	switch s.Mode {
	case stats.ScopeYear:
		return fmt.Sprintf("%d 年", s.Year)
	case stats.ScopeMonth:
		return fmt.Sprintf("%d 年 %d 月", s.Year, s.Month)
	}
	return "全部"
}

// CategoryLegend lists the category labels in scale order.
func CategoryLegend() string {
	parts := make([]string, 0, 5)
	for c := store.CategoryHard; c <= store.CategoryWatery; c++ {
		parts = append(parts, fmt.Sprintf("%d %s", c, c.Label()))
	}
	return strings.Join(parts, " ・ ")
}
