package models

import (
	"fmt"
	"math"

	"github.com/mickeykoko321/omega/src/utils"
)

// BarDTO is the persisted layout of a daily bar: Date,Open,High,Low,Close,Volume,OI
// with no header row.
type BarDTO struct {
	Date   string  `csv:"Date"`
	Open   float64 `csv:"Open"`
	High   float64 `csv:"High"`
	Low    float64 `csv:"Low"`
	Close  float64 `csv:"Close"`
	Volume float64 `csv:"Volume"`
	OI     float64 `csv:"OI"`
}

func (dto BarDTO) ToModel() (Bar, error) {
	d, err := utils.ParseDate(firstTen(dto.Date))
	if err != nil {
		return Bar{}, fmt.Errorf("BarDTO.ToModel: %w", err)
	}

	return NewBar(d, dto.Open, dto.High, dto.Low, dto.Close, int64(math.Round(dto.Volume)), int64(math.Round(dto.OI))), nil
}

func NewBarDTO(b Bar) BarDTO {
	return BarDTO{
		Date:   utils.FormatDate(b.Date),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: float64(b.Volume),
		OI:     float64(b.OI),
	}
}

type BarDTOs []BarDTO

func (dtos BarDTOs) ToModel() (Series, error) {
	out := make(Series, 0, len(dtos))
	for _, dto := range dtos {
		b, err := dto.ToModel()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}

	out.Sort()
	return out, nil
}

func NewBarDTOs(s Series) BarDTOs {
	out := make(BarDTOs, len(s))
	for i, b := range s {
		out[i] = NewBarDTO(b)
	}

	return out
}

// firstTen accepts timestamps written as "2006-01-02 00:00:00".
func firstTen(s string) string {
	if len(s) > 10 {
		return s[:10]
	}

	return s
}
