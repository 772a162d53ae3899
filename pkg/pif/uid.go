// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pif

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// uidNamespace scopes record identifiers to this converter.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/WardLT/pif-dft/record"))

// ComputeUID derives a name-based (version 5) UUID from the record's
// content, ignoring any UID it already carries. Equal records always get
// the same identifier.
func ComputeUID(rec *Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("computing uid: nil record")
	}
	content := *rec
	content.UID = ""
	data, err := json.Marshal(&content)
	if err != nil {
		return "", fmt.Errorf("computing uid: %w", err)
	}
	return uuid.NewSHA1(uidNamespace, data).String(), nil
}

// AssignUID sets rec.UID from its content.
func (r *Record) AssignUID() error {
	uid, err := ComputeUID(r)
	if err != nil {
		return err
	}
	r.UID = uid
	return nil
}
