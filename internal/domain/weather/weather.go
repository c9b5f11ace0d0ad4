package weather

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Query は都市名または座標による天気の問い合わせ
type Query struct {
	City string
	Lat  float64
	Lon  float64
	// byCoords が true なら座標で問い合わせる
	byCoords bool
}

// CityQuery は都市名による問い合わせを作成
func CityQuery(city string) Query {
	return Query{City: city}
}

// CoordsQuery は座標による問い合わせを作成
func CoordsQuery(lat, lon float64) Query {
	return Query{Lat: lat, Lon: lon, byCoords: true}
}

// ByCoords は座標による問い合わせかを判定
func (q Query) ByCoords() bool {
	return q.byCoords
}

// Validate は問い合わせの妥当性を検証
func (q Query) Validate() error {
	if q.byCoords {
		if math.IsNaN(q.Lat) || math.IsNaN(q.Lon) || math.IsInf(q.Lat, 0) || math.IsInf(q.Lon, 0) {
			return newError(ErrInvalidQuery, q, 0, "Latitude and longitude are required and must be numbers")
		}
		if q.Lat < -90 || q.Lat > 90 || q.Lon < -180 || q.Lon > 180 {
			return newError(ErrInvalidQuery, q, 0, "Latitude must be within ±90 and longitude within ±180")
		}
		return nil
	}

	if strings.TrimSpace(q.City) == "" {
		return newError(ErrInvalidQuery, q, 0, "City name is required and must be a string")
	}
	return nil
}

// String は問い合わせの表示用文字列を返す
func (q Query) String() string {
	if q.byCoords {
		return fmt.Sprintf("%g,%g", q.Lat, q.Lon)
	}
	return strings.TrimSpace(q.City)
}

// Coordinates は緯度経度
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Conditions は現在の気象要素
type Conditions struct {
	Temperature   int     `json:"temperature"`
	FeelsLike     int     `json:"feelsLike"`
	MinTemp       int     `json:"minTemp"`
	MaxTemp       int     `json:"maxTemp"`
	Description   string  `json:"description"`
	Main          string  `json:"main"`
	Icon          string  `json:"icon"`
	Humidity      int     `json:"humidity"`
	Pressure      int     `json:"pressure"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection int     `json:"windDirection"`
	Cloudiness    int     `json:"cloudiness"`
	Visibility    float64 `json:"visibility"` // km
}

// Sun は日の出・日の入り（現地時刻 HH:MM:SS）
type Sun struct {
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`
}

// Current は現在の天気スナップショット
type Current struct {
	City        string      `json:"city"`
	Country     string      `json:"country"`
	Coordinates Coordinates `json:"coordinates"`
	Weather     Conditions  `json:"weather"`
	Sun         Sun         `json:"sun"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Condition は天候の種別
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// TemperatureRange は日ごとの気温集計
type TemperatureRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
	Avg int `json:"avg"`
}

// DayCondition は日の代表天候と出現した全天候
type DayCondition struct {
	Condition
	AllConditions []Condition `json:"allConditions"`
}

// Hourly は3時間ごとの予報
type Hourly struct {
	Time        string  `json:"time"`
	Hour        int     `json:"hour"`
	Temperature int     `json:"temperature"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	WindSpeed   float64 `json:"windSpeed"`
	Humidity    int     `json:"humidity"`
}

// Daily は1日分の予報集計
type Daily struct {
	Date        string           `json:"date"`
	DayName     string           `json:"dayName"`
	Temperature TemperatureRange `json:"temperature"`
	Weather     DayCondition     `json:"weather"`
	Humidity    int              `json:"humidity"`
	WindSpeed   float64          `json:"windSpeed"`
	HourlyData  []Hourly         `json:"hourlyData"`
}

// Forecast は最大5日分の予報
type Forecast struct {
	City           string  `json:"city"`
	Country        string  `json:"country"`
	DailyForecasts []Daily `json:"dailyForecasts"`
	TotalDays      int     `json:"totalDays"`
}

// Complete は現在の天気と予報をまとめたスナップショット
type Complete struct {
	Current   *Current  `json:"current"`
	Forecast  *Forecast `json:"forecast"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Timestamp time.Time `json:"timestamp"`
}

// Gateway は天気プロバイダーの抽象化
type Gateway interface {
	GetCurrent(ctx context.Context, q Query) (*Current, error)
	GetForecast(ctx context.Context, q Query) (*Forecast, error)
	GetComplete(ctx context.Context, q Query) (*Complete, error)
}
