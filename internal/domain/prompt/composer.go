package prompt

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Nyukimin/tabitenki/internal/domain/weather"
)

// SummaryDays は要約に含める予報日数
const SummaryDays = 3

// Tag は天候の簡易分類
type Tag string

const (
	TagStormy Tag = "stormy"
	TagRainy  Tag = "rainy"
	TagCloudy Tag = "cloudy"
	TagClear  Tag = "clear"
	TagHumid  Tag = "humid"
	TagNormal Tag = "normal"
)

var (
	stormPattern = regexp.MustCompile(`(?i)storm|thunder`)
	rainPattern  = regexp.MustCompile(`(?i)rain`)
	cloudPattern = regexp.MustCompile(`(?i)cloud`)
	clearPattern = regexp.MustCompile(`(?i)sun|clear`)
)

// Location は要約対象の地点
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// CurrentSummary は現在の天気の要約
type CurrentSummary struct {
	TemperatureC int     `json:"temperatureC"`
	FeelsLikeC   int     `json:"feelsLikeC"`
	Condition    string  `json:"condition"`
	HumidityPct  int     `json:"humidityPct"`
	WindMs       float64 `json:"windMs"`
	VisibilityKm float64 `json:"visibilityKm"`
	Sunrise      string  `json:"sunrise,omitempty"`
	Sunset       string  `json:"sunset,omitempty"`
	Tag          Tag     `json:"tag"`
}

// DaySummary は予報1日分の要約
// VisibilityKm はプロバイダーが日単位で返さないため nil のことがある
type DaySummary struct {
	DayName      string   `json:"dayName"`
	MinC         int      `json:"minC"`
	MaxC         int      `json:"maxC"`
	Condition    string   `json:"condition"`
	HumidityPct  int      `json:"humidityPct"`
	WindMs       float64  `json:"windMs"`
	VisibilityKm *float64 `json:"visibilityKm,omitempty"`
	Tag          Tag      `json:"tag"`
}

// Summary は生成プロンプトに埋め込む天気要約
type Summary struct {
	Location  Location        `json:"location"`
	Current   *CurrentSummary `json:"current"`
	Next3Days []DaySummary    `json:"next3Days"`
	Timestamp time.Time       `json:"timestamp"`
}

// ClassifyTag は天候説明・風速・湿度から簡易タグを決定
// 判定は嵐、雨、曇り、晴れ、多湿の順
func ClassifyTag(description string, windSpeed float64, humidity int) Tag {
	switch {
	case stormPattern.MatchString(description) || windSpeed > 10:
		return TagStormy
	case rainPattern.MatchString(description):
		return TagRainy
	case cloudPattern.MatchString(description):
		return TagCloudy
	case clearPattern.MatchString(description):
		return TagClear
	case humidity > 80:
		return TagHumid
	default:
		return TagNormal
	}
}

// TempLabel は気温を定性的なラベルに変換
func TempLabel(t float64) string {
	switch {
	case t < 5:
		return "very cold"
	case t < 15:
		return "chilly"
	case t < 25:
		return "pleasant"
	case t < 32:
		return "warm"
	default:
		return "hot"
	}
}

// Summarize は天気スナップショットを要約に変換
func Summarize(data *weather.Complete, now time.Time) Summary {
	s := Summary{Next3Days: []DaySummary{}, Timestamp: now}
	if data == nil {
		return s
	}

	s.Location = Location{City: data.City, Country: data.Country}

	if cur := data.Current; cur != nil {
		w := cur.Weather
		s.Current = &CurrentSummary{
			TemperatureC: w.Temperature,
			FeelsLikeC:   w.FeelsLike,
			Condition:    w.Description,
			HumidityPct:  w.Humidity,
			WindMs:       w.WindSpeed,
			VisibilityKm: w.Visibility,
			Sunrise:      cur.Sun.Sunrise,
			Sunset:       cur.Sun.Sunset,
			Tag:          ClassifyTag(w.Description, w.WindSpeed, w.Humidity),
		}
	}

	if data.Forecast != nil {
		days := data.Forecast.DailyForecasts
		if len(days) > SummaryDays {
			days = days[:SummaryDays]
		}
		for _, d := range days {
			s.Next3Days = append(s.Next3Days, DaySummary{
				DayName:     d.DayName,
				MinC:        d.Temperature.Min,
				MaxC:        d.Temperature.Max,
				Condition:   d.Weather.Description,
				HumidityPct: d.Humidity,
				WindMs:      d.WindSpeed,
				Tag:         ClassifyTag(d.Weather.Description, d.WindSpeed, d.Humidity),
			})
		}
	}

	return s
}

// FormatForPrompt は要約を生成プロンプト向けの文章に整形
// 現在の天気と各予報日を空行で区切る
func FormatForPrompt(s Summary) string {
	if s.Current == nil {
		return "Weather: unavailable"
	}

	sections := make([]string, 0, 1+len(s.Next3Days))
	sections = append(sections, describeCurrent(s.Location, s.Current))
	for _, d := range s.Next3Days {
		sections = append(sections, describeDay(d))
	}
	return strings.Join(sections, "\n\n")
}

// Enhance は天気の文章と利用者の依頼を結合
func Enhance(weatherPrompt, userMessage string) string {
	return weatherPrompt + "\n\nUSER REQUEST: \"" + userMessage + "\""
}

func describeCurrent(loc Location, cur *CurrentSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Today in %s, %s: ", loc.City, loc.Country)
	fmt.Fprintf(&b, "The temperature is %d°C (feels like %d°C), which is %s. ",
		cur.TemperatureC, cur.FeelsLikeC, TempLabel(float64(cur.TemperatureC)))

	if cur.Condition != "" {
		fmt.Fprintf(&b, "The sky is %s. ", strings.ToLower(cur.Condition))
	}

	switch {
	case cur.HumidityPct < 40:
		b.WriteString("It's quite dry. ")
	case cur.HumidityPct > 70:
		b.WriteString("The air feels humid. ")
	default:
		b.WriteString("Humidity is comfortable. ")
	}

	switch {
	case cur.WindMs < 2:
		b.WriteString("Winds are calm. ")
	case cur.WindMs < 5:
		b.WriteString("A light breeze is present. ")
	default:
		b.WriteString("It's rather windy. ")
	}

	switch {
	case cur.VisibilityKm > 10:
		b.WriteString("Visibility is excellent.")
	case cur.VisibilityKm > 5:
		b.WriteString("Visibility is good.")
	default:
		b.WriteString("Visibility is limited.")
	}

	return strings.TrimSpace(b.String())
}

func describeDay(d DaySummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: Expect %s skies with temperatures ranging from %d°C to %d°C. ",
		d.DayName, strings.ToLower(d.Condition), d.MinC, d.MaxC)
	fmt.Fprintf(&b, "Overall, it should feel %s. ", TempLabel(float64(d.MinC+d.MaxC)/2))

	if d.HumidityPct != 0 {
		switch {
		case d.HumidityPct > 70:
			b.WriteString("It may feel humid. ")
		case d.HumidityPct < 40:
			b.WriteString("The air should feel dry. ")
		default:
			b.WriteString("Humidity will be comfortable. ")
		}
	}

	switch {
	case d.WindMs < 2:
		b.WriteString("Winds will be calm. ")
	case d.WindMs < 5:
		b.WriteString("A gentle breeze is expected. ")
	default:
		b.WriteString("It could be windy. ")
	}

	if d.VisibilityKm != nil {
		switch v := *d.VisibilityKm; {
		case v > 10:
			b.WriteString("Visibility will be excellent.")
		case v > 5:
			b.WriteString("Visibility will be decent.")
		default:
			b.WriteString("Visibility may be limited.")
		}
	}

	return strings.TrimSpace(b.String())
}
