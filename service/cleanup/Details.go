package cleanup

import (
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
	"github.com/iancoleman/orderedmap"
)

const (
	detailsJobId      = view.DetailsJobId
	detailsInstanceId = view.DetailsInstanceId
	detailsStatus     = view.DetailsStatus
	detailsDurationMs = view.DetailsDurationMs
	detailsError      = view.DetailsError
)

// Details is the jsonb payload of a cleanup_logs row. Keys keep insertion order.
type Details struct {
	values *orderedmap.OrderedMap
}

func NewDetails() *Details {
	values := orderedmap.New()
	values.SetEscapeHTML(false)
	return &Details{values: values}
}

func (d *Details) Set(key string, value interface{}) {
	d.values.Set(key, value)
}

func (d *Details) Get(key string) (interface{}, bool) {
	return d.values.Get(key)
}

func (d *Details) Keys() []string {
	return d.values.Keys()
}

func (d *Details) OrderedMap() *orderedmap.OrderedMap {
	return d.values
}
