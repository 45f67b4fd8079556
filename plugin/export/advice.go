package export

import (
	"fmt"

	"github.com/hrygo/poplog/server/stats"
)

// AdviceText is the reader-facing wording of an advisory code.
type AdviceText struct {
	Title string `json:"title"`
	Tip   string `json:"tip"`
}

var adviceTexts = map[stats.Advice]AdviceText{
	stats.AdviceFewThisWeek: {
		Title: "這週有點少",
		Tip:   "多喝水、多蔬果 + 固定時段嘗試（早餐後或晚餐後）。若連續多日未解，留意是否腹脹與不適。",
	},
	stats.AdviceHardHeavy: {
		Title: "偏硬比例較高",
		Tip:   "增加膳食纖維（全穀、蔬菜）、每天 1500–2000ml 水，睡前可輕微腹部按摩。",
	},
	stats.AdviceWateryHeavy: {
		Title: "水樣較多",
		Tip:   "注意補水與電解質，暫避生冷辛辣。若合併腹痛/血便/發燒，請及早就醫。",
	},
	stats.AdviceGapDays: {
		Title: "出現斷層日",
		Tip:   "偵測到最長 %d 天未記錄排便，建議調整作息與纖維水分，持續觀察。",
	},
	stats.AdviceConsistent: {
		Title: "很棒，穩定紀錄中",
		Tip:   "保持規律作息與運動，記錄能幫你更了解身體節奏，為自己鼓掌！",
	},
	stats.AdviceSteady: {
		Title: "維持目前節奏",
		Tip:   "偶爾調整飲食與運動即可。身體的訊號最誠實，做得很好！",
	},
}

// Explain returns the wording of every advisory code of r, in order.
// Unknown codes are skipped.
func Explain(r *stats.Report) []AdviceText {
	out := make([]AdviceText, 0, len(r.Advice))
	for _, code := range r.Advice {
		text, ok := adviceTexts[code]
		if !ok {
			continue
		}
		if code == stats.AdviceGapDays {
			text.Tip = fmt.Sprintf(text.Tip, r.LongestGap)
		}
		out = append(out, text)
	}
	return out
}
