package weather

import (
	"math"
	"time"
)

// MaxForecastDays は予報として保持する日数の上限
const MaxForecastDays = 5

var japaneseWeekdays = [...]string{"日曜日", "月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日"}

// Reading はプロバイダーの3時間ごとの予報1件
type Reading struct {
	At          time.Time
	Temperature float64
	Humidity    int
	WindSpeed   float64
	Condition   Condition
}

// JSRound は0.5を切り上げる四捨五入（負数は正方向へ丸める）
func JSRound(x float64) int {
	return int(math.Floor(x + 0.5))
}

// RoundTenth は小数第1位に丸める
func RoundTenth(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

// WeekdayName は曜日の日本語名を返す
func WeekdayName(t time.Time) string {
	return japaneseWeekdays[t.Weekday()]
}

// Location はUTCからのオフセット秒をタイムゾーンに変換
func Location(offsetSeconds int) *time.Location {
	if offsetSeconds == 0 {
		return time.UTC
	}
	return time.FixedZone("", offsetSeconds)
}

type dayBucket struct {
	date       string
	dayName    string
	temps      []float64
	humidity   []int
	wind       []float64
	conditions []Condition
	hourly     []Hourly
}

// AggregateDaily は現地日付ごとに予報を集計し、先頭から最大5日分を返す
// 日付の順序は最初に出現した順
func AggregateDaily(readings []Reading, loc *time.Location) []Daily {
	if loc == nil {
		loc = time.UTC
	}

	var order []string
	buckets := make(map[string]*dayBucket)

	for _, r := range readings {
		local := r.At.In(loc)
		key := local.Format("2006-01-02")

		b, ok := buckets[key]
		if !ok {
			b = &dayBucket{date: key, dayName: WeekdayName(local)}
			buckets[key] = b
			order = append(order, key)
		}

		b.temps = append(b.temps, r.Temperature)
		b.humidity = append(b.humidity, r.Humidity)
		b.wind = append(b.wind, r.WindSpeed)

		if !hasIcon(b.conditions, r.Condition.Icon) {
			b.conditions = append(b.conditions, r.Condition)
		}

		b.hourly = append(b.hourly, Hourly{
			Time:        local.Format("15:04"),
			Hour:        local.Hour(),
			Temperature: JSRound(r.Temperature),
			Description: r.Condition.Description,
			Icon:        r.Condition.Icon,
			WindSpeed:   r.WindSpeed,
			Humidity:    r.Humidity,
		})
	}

	if len(order) > MaxForecastDays {
		order = order[:MaxForecastDays]
	}

	days := make([]Daily, 0, len(order))
	for _, key := range order {
		days = append(days, buckets[key].summarize())
	}
	return days
}

func hasIcon(conditions []Condition, icon string) bool {
	for _, c := range conditions {
		if c.Icon == icon {
			return true
		}
	}
	return false
}

func (b *dayBucket) summarize() Daily {
	minT, maxT, sumT := math.Inf(1), math.Inf(-1), 0.0
	for _, t := range b.temps {
		minT = math.Min(minT, t)
		maxT = math.Max(maxT, t)
		sumT += t
	}

	sumH := 0
	for _, h := range b.humidity {
		sumH += h
	}

	sumW := 0.0
	for _, w := range b.wind {
		sumW += w
	}

	n := float64(len(b.temps))

	representative := Condition{Main: "Unknown", Description: "No data", Icon: "01d"}
	if len(b.conditions) > 0 {
		representative = b.conditions[0]
	}

	return Daily{
		Date:    b.date,
		DayName: b.dayName,
		Temperature: TemperatureRange{
			Min: JSRound(minT),
			Max: JSRound(maxT),
			Avg: JSRound(sumT / n),
		},
		Weather: DayCondition{
			Condition:     representative,
			AllConditions: b.conditions,
		},
		Humidity:   JSRound(float64(sumH) / n),
		WindSpeed:  RoundTenth(sumW / n),
		HourlyData: b.hourly,
	}
}
