package features

import "fmt"

// Aggregate merges the extractor outputs into one vector that strictly
// matches the fixed schema. Skipped groups contribute their documented
// sentinels, so fast-mode and full-mode vectors always share length and
// order; only values differ.
func Aggregate(lex LexicalFeatures, dom DomainResult, cont ContentResult) (Vector, error) {
	domVals := groupSentinels(GroupDomain)
	if !dom.Skipped {
		domVals = dom.Features.values()
	}
	contVals := groupSentinels(GroupContent)
	if !cont.Skipped {
		contVals = cont.Features.values()
	}
	return assemble(lex.values(), domVals, contVals)
}

// assemble concatenates per-group value slices in schema order. A count
// mismatch means extractor/schema version skew and must abort rather than
// silently misalign the vector.
func assemble(lex, dom, cont []float64) (Vector, error) {
	if len(lex) != groupCount(GroupLexical) {
		return nil, fmt.Errorf("%w: lexical group produced %d features, schema expects %d",
			ErrSchemaMismatch, len(lex), groupCount(GroupLexical))
	}
	if len(dom) != groupCount(GroupDomain) {
		return nil, fmt.Errorf("%w: domain group produced %d features, schema expects %d",
			ErrSchemaMismatch, len(dom), groupCount(GroupDomain))
	}
	if len(cont) != groupCount(GroupContent) {
		return nil, fmt.Errorf("%w: content group produced %d features, schema expects %d",
			ErrSchemaMismatch, len(cont), groupCount(GroupContent))
	}

	v := make(Vector, 0, Len())
	v = append(v, lex...)
	v = append(v, dom...)
	v = append(v, cont...)
	return v, nil
}
