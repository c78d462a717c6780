package document

// Clone returns a deep copy of the document. Nested objects and arrays are copied; scalar
// values are shared, since JSON scalars are immutable.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(d))
}

// CloneValue deep-copies an arbitrary decoded JSON value.
func CloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Document:
		return t.Clone()
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		ret := make([]interface{}, len(t))
		for i, item := range t {
			ret[i] = CloneValue(item)
		}
		return ret
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	ret := make(map[string]interface{}, len(m))
	for k, v := range m {
		ret[k] = CloneValue(v)
	}
	return ret
}
