package pipeline

import "time"

// TargetDateLayout: DD/MM/YYYY, как ждут слайсеры отчёта.
const TargetDateLayout = "02/01/2006"

// TargetDate возвращает вчерашнюю календарную дату в часовом поясе now.
func TargetDate(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(TargetDateLayout)
}
