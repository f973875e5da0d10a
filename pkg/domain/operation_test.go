package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation_AccessorsReturnCopies(t *testing.T) {
	payload := Document{"name": "Chair"}
	op := NewWrite("products", "p1", payload)

	// Mutating the caller's map after construction has no effect.
	payload["name"] = "Table"
	assert.Equal(t, "Chair", op.Payload()["name"])

	// Mutating a returned copy has no effect either.
	got := op.Payload()
	got["name"] = "Sofa"
	assert.Equal(t, "Chair", op.Payload()["name"])
	assert.Equal(t, "p1", op.Payload()[IDField])

	read := NewRead("products", Query{Filter: map[string]interface{}{"category": "seating"}})
	q := read.Query()
	q.Filter["category"] = "tables"
	assert.Equal(t, "seating", read.Query().Filter["category"])
}

func TestOperation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		wantErr bool
	}{
		{name: "read", op: NewRead("products", Query{})},
		{name: "read without collection", op: NewRead("", Query{}), wantErr: true},
		{name: "negative limit", op: NewRead("products", Query{Limit: -1}), wantErr: true},
		{name: "read one", op: NewReadOne("products", "p1")},
		{name: "read one without id", op: NewReadOne("products", ""), wantErr: true},
		{name: "write", op: NewWrite("contacts", "c1", Document{"email": "a@b.c"})},
		{name: "write empty payload", op: NewWrite("contacts", "c1", Document{}), wantErr: true},
		{name: "write without identity", op: NewWrite("contacts", "", Document{"email": "a@b.c"}), wantErr: true},
		{name: "update", op: NewUpdate("orders", "o1", Document{"status": "shipped"})},
		{name: "update empty", op: NewUpdate("orders", "o1", nil), wantErr: true},
		{name: "delete", op: NewDelete("orders", "o1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, KindValidation, KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOperation_Key(t *testing.T) {
	a := NewWrite("contacts", "c1", Document{"email": "a@b.c"})
	b := NewWrite("contacts", "c1", Document{"email": "a@b.c"})
	c := NewWrite("contacts", "c2", Document{"email": "a@b.c"})

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.NotEqual(t, NewUpdate("orders", "o1", Document{"status": "paid"}).Key(),
		NewUpdate("orders", "o1", Document{"status": "shipped"}).Key())
}

func TestOperation_JSON(t *testing.T) {
	op := NewUpdate("paymentsettings", "ps1", Document{"isActive": true}).WithExclusive("isActive")

	raw, err := json.Marshal(op)
	require.NoError(t, err)

	var decoded Operation
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, op.Key(), decoded.Key())
	assert.Equal(t, "isActive", decoded.Exclusive())
	assert.Equal(t, VerbUpdate, decoded.Verb())
	assert.Equal(t, CategoryWrite, decoded.Category())
}
