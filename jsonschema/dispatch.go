package jsonschema

// Evaluate dispatches the current frame: it runs every keyword of the
// current schema node that participates in the active dialect, in ascending
// priority order. Every applicable keyword runs; fail-fast shortcuts live
// inside keyword scans, never here, so producers always get the chance to
// publish the annotations their consumers read.
//
// The boolean schema forms short-circuit: "true" accepts any node, "false"
// rejects any node.
func (c *EvaluationContext) Evaluate() error {
	f := c.cur()
	if b, ok := f.schema.Bool(); ok {
		if !b {
			f.result.addError("", "disallowed by the false schema")
		}
		return nil
	}
	for _, ck := range f.schema.keywords {
		if ck.info.drafts&c.opt.Draft == 0 {
			// Not part of the active dialect: no outcome, no annotation.
			continue
		}
		f.keyword = ck.info.name
		c.debugf("jsonschema: eval %q at %q (instance %q)", ck.info.name, f.result.evalPath.String(), f.result.instanceLoc.String())
		err := ck.kw.Evaluate(c)
		f.keyword = ""
		if err != nil {
			return err
		}
	}
	return nil
}
