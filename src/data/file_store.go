package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/models"
)

// FilePriceStore keeps one headerless text file per ticker under
// <root>/Daily/<stem>/<kind>/<ticker>.txt.
type FilePriceStore struct {
	root string
}

func NewFilePriceStore(root string) *FilePriceStore {
	return &FilePriceStore{root: root}
}

func (s *FilePriceStore) Path(ticker string) (string, error) {
	st, err := instrument.Decode(ticker)
	if err != nil {
		return "", fmt.Errorf("FilePriceStore.Path: %w", err)
	}

	return filepath.Join(s.root, "Daily", st.Stem, st.Kind.String(), fmt.Sprintf("%s.txt", ticker)), nil
}

// ReferencePath is the file holding the backtest master clock.
func (s *FilePriceStore) ReferencePath() string {
	return filepath.Join(s.root, "Reference.txt")
}

func (s *FilePriceStore) Load(ticker string) (models.Series, error) {
	path, err := s.Path(ticker)
	if err != nil {
		return nil, err
	}

	series, err := readSeries(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("FilePriceStore.Load: %s: %w", ticker, ErrNotFound)
		}

		return nil, fmt.Errorf("FilePriceStore.Load: %s: %w", ticker, err)
	}

	return series.Weekdays(), nil
}

// Save replaces the stored bars from the first new date onwards.
func (s *FilePriceStore) Save(ticker string, series models.Series) error {
	path, err := s.Path(ticker)
	if err != nil {
		return err
	}

	existing, err := readSeries(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("FilePriceStore.Save: %s: %w", ticker, err)
	}

	merged := existing.Merge(series)
	if err := writeSeries(path, merged); err != nil {
		return fmt.Errorf("FilePriceStore.Save: %s: %w", ticker, err)
	}

	log.Debugf("saved %d bars for %s", len(merged), ticker)
	return nil
}

// SaveReference writes the reference series, overwriting any previous one.
func (s *FilePriceStore) SaveReference(series models.Series) error {
	if err := writeSeries(s.ReferencePath(), series); err != nil {
		return fmt.Errorf("FilePriceStore.SaveReference: %w", err)
	}

	return nil
}

func readSeries(path string) (models.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var dtos models.BarDTOs
	if err := gocsv.UnmarshalCSVWithoutHeaders(csv.NewReader(f), &dtos); err != nil {
		return nil, fmt.Errorf("error unmarshalling %s: %w", path, err)
	}

	return dtos.ToModel()
}

func writeSeries(path string, series models.Series) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dtos := models.NewBarDTOs(series)
	return gocsv.MarshalCSVWithoutHeaders(&dtos, gocsv.NewSafeCSVWriter(csv.NewWriter(f)))
}
