package profile

// deepMerge returns a new map where every leaf key of override replaces
// the corresponding key of base; nested maps are merged recursively, and
// any key present only in base is preserved. This implements spec §4.1's
// "deep merge; child wins per leaf key" parent-inheritance rule.
func deepMerge(base, override map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if baseVal, ok := out[k]; ok {
			baseMap, baseIsMap := baseVal.(map[string]interface{})
			overrideMap, overrideIsMap := v.(map[string]interface{})
			if baseIsMap && overrideIsMap {
				out[k] = deepMerge(baseMap, overrideMap)
				continue
			}
		}
		out[k] = v
	}
	return out
}
