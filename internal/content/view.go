package content

// View is the template-facing form of a page or post. Header fields come
// first and computed fields override them. `content` is a callable so that
// listings such as site.posts only render the posts they print.
func (e *Entity) View() map[string]any {
	v := make(map[string]any, len(e.header)+12)
	for k, val := range e.header {
		v[k] = val
	}
	v["kind"] = e.kind.String()
	v["name"] = e.Name()
	v["source"] = e.rel
	v["path"] = e.URL()
	v["url"] = e.URL()
	v["title"] = e.Title()
	v["content"] = e.Render
	v["layout"] = e.Parent()

	if e.post != nil {
		v["date"] = e.post.date
		v["year"] = e.post.year
		v["month"] = e.post.month
		v["day"] = e.post.day
		v["slug"] = e.post.slug
		v["categories"] = e.post.Categories()
		v["publish"] = e.Publish()
		v["permalink"] = e.Permalink()
		v["fingerprint"] = func() (string, error) { return e.Fingerprint() }
	}
	return v
}

// Views converts entities for use in templates.
func Views(entities []*Entity) []map[string]any {
	out := make([]map[string]any, len(entities))
	for i, e := range entities {
		out[i] = e.View()
	}
	return out
}
