package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/gorilla/mux"
)

// reserved query parameters that are not filters
const (
	sortParam  = "sort"
	limitParam = "limit"
)

// HandleFind handles GET requests listing a collection. Query parameters are
// equality filters except sort (e.g. "-price,name") and limit.
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	if _, ok := h.collection(collName); !ok {
		log.Printf("WARN: Unknown collection '%s'", collName)
		WriteJSONError(w, http.StatusNotFound, "unknown collection "+collName)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	env := h.execute(w, r, domain.NewRead(collName, q))
	log.Printf("INFO: Found %d documents in collection '%s' via %s", env.Count, collName, env.Source)
}

func parseQuery(r *http.Request) (domain.Query, error) {
	q := domain.Query{}
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[0] // Take first value if multiple provided

		switch key {
		case sortParam:
			q.Sort = domain.ParseSort(value)
		case limitParam:
			limit, err := strconv.Atoi(value)
			if err != nil || limit < 0 {
				return domain.Query{}, &queryError{param: key, value: value}
			}
			q.Limit = limit
		default:
			// Values stay strings; matching compares them loosely against
			// numbers and booleans.
			if q.Filter == nil {
				q.Filter = make(map[string]interface{})
			}
			q.Filter[key] = value
		}
	}
	return q, nil
}

type queryError struct {
	param string
	value string
}

func (e *queryError) Error() string {
	return "invalid value " + strconv.Quote(e.value) + " for " + e.param
}
