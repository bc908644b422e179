package pipeline

import (
	"encoding/json"
)

// Artifact: снимок одного графика. Пустой Path означает, что снимка нет.
type Artifact struct {
	Name   string
	Path   string
	URL    string
	SHA256 string
}

func (a Artifact) Present() bool {
	return a.Path != ""
}

// Result: единственная итоговая запись прогона.
type Result struct {
	Artifacts []Artifact
	Error     string
}

// Failed строит результат фатального прогона: ошибка заполнена, артефактов нет.
func Failed(names []string, err error) *Result {
	r := &Result{Artifacts: make([]Artifact, 0, len(names))}
	for _, name := range names {
		r.Artifacts = append(r.Artifacts, Artifact{Name: name})
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func (r *Result) Artifact(name string) (Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// MarshalJSON раскладывает артефакты в плоские поля: r2p_path, r2p_url, r2p_sha256, ..., error.
// Отсутствующие значения пишутся как null.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]*string, len(r.Artifacts)*3+1)
	for _, a := range r.Artifacts {
		out[a.Name+"_path"] = optional(a.Path)
		out[a.Name+"_url"] = optional(a.URL)
		out[a.Name+"_sha256"] = optional(a.SHA256)
	}
	out["error"] = optional(r.Error)
	return json.Marshal(out)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
