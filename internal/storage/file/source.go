package file

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/drakos74/market-predictor/internal/model"
)

// Key summarises a stored bar series.
type Key struct {
	Pair  string    `json:"pair"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Count int       `json:"count"`
}

// Series is the daily bar history of one pair.
type Series struct {
	Key
	Bars []model.Bar `json:"bars"`
}

// NewSeries creates a series for the given bars.
func NewSeries(pair string, bars []model.Bar) *Series {
	k := Key{
		Pair:  pair,
		Count: len(bars),
	}
	if len(bars) > 0 {
		k.From = bars[0].Time
		k.To = bars[len(bars)-1].Time
	}
	return &Series{
		Key:  k,
		Bars: bars,
	}
}

// Save saves the series to the given path, named after the first bar date.
// It returns the name of the file written.
func (s *Series) Save(filePath string) (string, error) {

	// check if filepath exists
	info, err := os.Stat(filePath)
	if err != nil {
		err := os.MkdirAll(filePath, os.ModePerm)
		if err != nil {
			return "", fmt.Errorf("could not make dir: %s: %w", filePath, err)
		}
	} else if !info.IsDir() {
		return "", fmt.Errorf("path given is not a directory: %s", filePath)
	}

	// create the output file
	path := timePath(filePath, s.Pair, s.From)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("could not create file '%s': %w", path, err)
	}
	defer f.Close()

	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("could not save series '%+v': %w", s.Key, err)
	}

	// write the file
	_, err = f.Write(b)
	if err != nil {
		return "", fmt.Errorf("could not write series '%+v' to file '%v' : %w", s.Key, path, err)
	}

	return path, nil

}

// Load loads the series from the given file and checks the bars are in order.
func Load(fileName string) (*Series, error) {

	data, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("could not read file '%s': %w", fileName, err)
	}

	var s Series
	err = json.Unmarshal(data, &s)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal series: %w", err)
	}

	if s.Count != 0 && s.Count != len(s.Bars) {
		return nil, fmt.Errorf("series declares %d bars but has %d: %w", s.Count, len(s.Bars), model.ConfigErr)
	}
	if err := model.CheckOrder(s.Bars); err != nil {
		return nil, fmt.Errorf("invalid series '%s': %w", fileName, err)
	}

	return &s, nil
}

func timePath(filePath, pair string, from time.Time) string {
	return fmt.Sprintf("%s/%s_%v_%v_%v.json", filePath, pair, from.Year(), int(from.Month()), from.Day())
}
