package document

// AppendProof attaches a proof without ever overwriting an existing one: a document with no
// proof gets the proof as-is, a single proof becomes a two-element array, and an array of
// proofs is appended to. The document is modified in place.
func (d Document) AppendProof(proof map[string]interface{}) {
	switch existing := d[PropertyProof].(type) {
	case nil:
		d[PropertyProof] = proof
	case []interface{}:
		d[PropertyProof] = append(existing, proof)
	default:
		d[PropertyProof] = []interface{}{existing, proof}
	}
}

// Proofs returns the attached proofs as a slice, whether the proof property is a single object
// or an array. Entries that are not objects are returned as nil maps so callers can detect them.
func (d Document) Proofs() []map[string]interface{} {
	switch p := d[PropertyProof].(type) {
	case nil:
		return nil
	case []interface{}:
		ret := make([]map[string]interface{}, 0, len(p))
		for _, item := range p {
			m, _ := FromValue(item)
			ret = append(ret, m)
		}
		return ret
	default:
		m, _ := FromValue(p)
		return []map[string]interface{}{m}
	}
}

// WithoutProof returns a deep copy of the document with the proof property removed.
func (d Document) WithoutProof() Document {
	c := d.Clone()
	delete(c, PropertyProof)
	return c
}
