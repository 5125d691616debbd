package internal

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

const defaultPrefix = "meta:"

const inspectPage = `<!DOCTYPE html>
<html>
<head><title>Badger inspector</title>
<style>
body { font-family: monospace; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { background: #eee; }
</style>
</head>
<body>
<h2>Prefix "{{.Prefix}}" ({{len .Items}} keys{{if .Truncated}}, truncated{{end}})</h2>
<form><input name="prefix" value="{{.Prefix}}"> <input type="submit" value="Filter"></form>
{{if .Stats}}<ul>{{range $k, $v := .Stats}}<li>{{$k}}: {{$v}}</li>{{end}}</ul>{{end}}
<table>
<tr><th>Key</th><th>Type</th><th>File</th><th>Detail</th></tr>
{{range .Items}}<tr><td>{{.Key}}</td><td>{{.Type}}</td><td>{{.EntityID}}</td><td>{{.Detail}}</td></tr>
{{end}}</table>
</body>
</html>`

type InspectRow struct {
	Key      string
	Type     string
	EntityID string
	Detail   string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix    string
	Items     []InspectRow
	Stats     map[string]any
	Truncated bool
}

// Inspector is a read-only HTML view over the keys of a Badger database.
type Inspector struct {
	log      *slog.Logger
	db       *badger.DB
	mapper   RowMapper
	stats    StatsProvider
	maxItems int
	tmpl     *template.Template
}

func NewInspector(log *slog.Logger, db *badger.DB, mapper RowMapper, stats StatsProvider) *Inspector {
	if mapper == nil {
		mapper = DefaultMapper
	}
	return &Inspector{
		log:      log,
		db:       db,
		mapper:   mapper,
		stats:    stats,
		maxItems: 1000,
		tmpl:     template.Must(template.New("inspect").Parse(inspectPage)),
	}
}

// Handler serves the inspector on endpoint.
func (i *Inspector) Handler(endpoint string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+endpoint, i.serve)
	return mux
}

func (i *Inspector) Rows(prefix string) (PageData, error) {
	data := PageData{Prefix: prefix, Stats: make(map[string]any)}
	if i.stats != nil {
		data.Stats = i.stats()
	}

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	err := i.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if len(data.Items) == i.maxItems {
				data.Truncated = true
				return nil
			}
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				data.Items = append(data.Items, i.mapper(string(item.Key()), val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return data, err
}

func (i *Inspector) serve(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = defaultPrefix
	}

	data, err := i.Rows(prefix)
	if err != nil {
		i.log.Error("Inspector failed to read database", "prefix", prefix, "error", err)
		http.Error(w, "database read failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := i.tmpl.Execute(w, data); err != nil {
		i.log.Debug("Inspector page write failed", "error", err)
	}
}

// DefaultMapper shows the key as is with the value size.
func DefaultMapper(key string, val []byte) InspectRow {
	return InspectRow{
		Key:      key,
		Type:     "RAW",
		EntityID: "--------",
		Detail:   "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
}
