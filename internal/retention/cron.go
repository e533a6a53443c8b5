package retention

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule — раз в час, в начале часа.
const DefaultSchedule = "0 * * * *"

// cronParser — парсер стандартных 5-польных cron-выражений и дескрипторов (@hourly).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// NextDue возвращает следующее время срабатывания после from (в UTC).
func NextDue(expr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	return schedule.Next(from).UTC(), nil
}
