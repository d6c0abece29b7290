package registry

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// EvaluatePolicyExpr evaluates policy.PolicyExpr, if set, as a CEL boolean
// expression gating envelope admission beyond the fixed §4.D invariants
// (SPEC_FULL §4.J.1). An empty expression always passes. CEL only ever sees
// `domain` plus whatever scalar fields the operator named in
// PolicyExprFields — it is never handed the raw payload object, so this
// extension cannot grow into general payload-format interpretation (a named
// non-goal).
func (p ChannelPolicy) EvaluatePolicyExpr(domain string, fields map[string]interface{}) (bool, error) {
	if p.PolicyExpr == "" {
		return true, nil
	}

	decls := []cel.EnvOption{cel.Variable("domain", cel.StringType)}
	vars := map[string]interface{}{"domain": domain}
	for _, name := range p.PolicyExprFields {
		decls = append(decls, cel.Variable(name, cel.DynType))
		if v, ok := fields[name]; ok {
			vars[name] = v
		} else {
			vars[name] = nil
		}
	}

	env, err := cel.NewEnv(decls...)
	if err != nil {
		return false, fmt.Errorf("registry: cel env: %w", err)
	}
	ast, issues := env.Compile(p.PolicyExpr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("registry: cel compile: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("registry: cel program: %w", err)
	}
	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("registry: cel eval: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("registry: cel expression %q did not evaluate to bool", p.PolicyExpr)
	}
	return b, nil
}
