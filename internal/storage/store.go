package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/stablegym/internal/sim"
)

const (
	metadataFile    = "metadata.json"
	transitionsFile = "transitions.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID              string             `json:"id"`
	Env             string             `json:"env"`
	Timestamp       time.Time          `json:"timestamp"`
	Seed            uint64             `json:"seed"`
	Episodes        int                `json:"episodes"`
	MaxEpisodeSteps int                `json:"max_episode_steps"`
	Dt              float64            `json:"dt"`
	Integrator      string             `json:"integrator,omitempty"`
	Policy          string             `json:"policy"`
	Params          map[string]float64 `json:"params,omitempty"`
	Steps           int                `json:"steps"`
	MeanReturn      float64            `json:"mean_return"`
	Metrics         map[string]float64 `json:"metrics"`
}

// Transition is one row of transitions.csv.
type Transition struct {
	Episode        int       `json:"episode"`
	Step           int       `json:"step"`
	Time           float64   `json:"time"`
	Cost           float64   `json:"cost"`
	Terminated     bool      `json:"terminated"`
	Truncated      bool      `json:"truncated"`
	Reference      float64   `json:"reference"`
	ReferenceError float64   `json:"reference_error"`
	Observation    []float64 `json:"observation"`
	Action         []float64 `json:"action"`
}

// Save writes a new run directory and returns its id. ID and Timestamp of
// meta are filled in; Steps, MeanReturn and Metrics come from result.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now().UTC()
	meta.Steps = result.StepsTaken
	meta.MeanReturn = result.MeanReturn()
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTransitions(filepath.Join(runDir, transitionsFile), result.Samples); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeTransitions(path string, samples []sim.Sample) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"episode", "step", "time", "cost", "terminated", "truncated", "reference", "reference_error"}
	numObs, numAct := 0, 0
	if len(samples) > 0 {
		numObs = len(samples[0].Observation)
		numAct = len(samples[0].Action)
	}
	for i := 0; i < numObs; i++ {
		header = append(header, fmt.Sprintf("o%d", i))
	}
	for i := 0; i < numAct; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.Episode),
			strconv.Itoa(s.Step),
			formatFloat(s.Time),
			formatFloat(s.Cost),
			strconv.FormatBool(s.Terminated),
			strconv.FormatBool(s.Truncated),
			formatFloat(s.Info.Reference),
			formatFloat(s.Info.ReferenceError),
		}
		for i := 0; i < numObs; i++ {
			v := 0.0
			if i < len(s.Observation) {
				v = s.Observation[i]
			}
			row = append(row, formatFloat(v))
		}
		for i := 0; i < numAct; i++ {
			v := 0.0
			if i < len(s.Action) {
				v = s.Action[i]
			}
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTransitions(runID string) ([]Transition, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, transitionsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Transition{}, nil
	}

	header := records[0]
	out := make([]Transition, 0, len(records)-1)
	for n, record := range records[1:] {
		tr, err := parseTransition(header, record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", transitionsFile, n+2, err)
		}
		out = append(out, tr)
	}
	return out, nil
}

func parseTransition(header, record []string) (Transition, error) {
	var tr Transition
	for i, col := range header {
		field := record[i]
		var err error
		switch {
		case col == "episode":
			tr.Episode, err = strconv.Atoi(field)
		case col == "step":
			tr.Step, err = strconv.Atoi(field)
		case col == "terminated":
			tr.Terminated, err = strconv.ParseBool(field)
		case col == "truncated":
			tr.Truncated, err = strconv.ParseBool(field)
		default:
			var v float64
			v, err = strconv.ParseFloat(field, 64)
			if err != nil {
				break
			}
			switch {
			case col == "time":
				tr.Time = v
			case col == "cost":
				tr.Cost = v
			case col == "reference":
				tr.Reference = v
			case col == "reference_error":
				tr.ReferenceError = v
			case strings.HasPrefix(col, "o"):
				tr.Observation = append(tr.Observation, v)
			case strings.HasPrefix(col, "u"):
				tr.Action = append(tr.Action, v)
			}
		}
		if err != nil {
			return Transition{}, fmt.Errorf("column %s: %w", col, err)
		}
	}
	return tr, nil
}

// ExportData is the JSON form of a stored run.
type ExportData struct {
	Metadata    RunMetadata  `json:"metadata"`
	Transitions []Transition `json:"transitions"`
}

// ExportJSON writes a stored run as indented JSON.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	transitions, err := s.LoadTransitions(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Metadata: *meta, Transitions: transitions})
}
