package openweather

import (
	"time"

	"github.com/Nyukimin/tabitenki/internal/domain/weather"
)

// errorResponse はエラー時の応答本文
type errorResponse struct {
	Message string `json:"message"`
}

type conditionDTO struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (d conditionDTO) toDomain() weather.Condition {
	return weather.Condition{Main: d.Main, Description: d.Description, Icon: d.Icon}
}

func firstCondition(list []conditionDTO) conditionDTO {
	if len(list) == 0 {
		return conditionDTO{}
	}
	return list[0]
}

// currentResponse は /weather の応答
type currentResponse struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []conditionDTO `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility int `json:"visibility"`
	Timezone   int `json:"timezone"`
}

func (r currentResponse) toDomain(now time.Time) *weather.Current {
	loc := weather.Location(r.Timezone)
	cond := firstCondition(r.Weather)

	return &weather.Current{
		City:        r.Name,
		Country:     r.Sys.Country,
		Coordinates: weather.Coordinates{Lat: r.Coord.Lat, Lon: r.Coord.Lon},
		Weather: weather.Conditions{
			Temperature:   weather.JSRound(r.Main.Temp),
			FeelsLike:     weather.JSRound(r.Main.FeelsLike),
			MinTemp:       weather.JSRound(r.Main.TempMin),
			MaxTemp:       weather.JSRound(r.Main.TempMax),
			Description:   cond.Description,
			Main:          cond.Main,
			Icon:          cond.Icon,
			Humidity:      r.Main.Humidity,
			Pressure:      r.Main.Pressure,
			WindSpeed:     r.Wind.Speed,
			WindDirection: r.Wind.Deg,
			Cloudiness:    r.Clouds.All,
			Visibility:    float64(r.Visibility) / 1000,
		},
		Sun: weather.Sun{
			Sunrise: clock(r.Sys.Sunrise, loc),
			Sunset:  clock(r.Sys.Sunset, loc),
		},
		Timestamp: now,
	}
}

func clock(unix int64, loc *time.Location) string {
	if unix == 0 {
		return ""
	}
	return time.Unix(unix, 0).In(loc).Format("15:04:05")
}

// forecastResponse は /forecast の応答（3時間ごと）
type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []conditionDTO `json:"weather"`
		Wind    struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	} `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

func (r forecastResponse) toDomain() *weather.Forecast {
	readings := make([]weather.Reading, 0, len(r.List))
	for _, item := range r.List {
		readings = append(readings, weather.Reading{
			At:          time.Unix(item.Dt, 0),
			Temperature: item.Main.Temp,
			Humidity:    item.Main.Humidity,
			WindSpeed:   item.Wind.Speed,
			Condition:   firstCondition(item.Weather).toDomain(),
		})
	}

	days := weather.AggregateDaily(readings, weather.Location(r.City.Timezone))
	return &weather.Forecast{
		City:           r.City.Name,
		Country:        r.City.Country,
		DailyForecasts: days,
		TotalDays:      len(days),
	}
}
