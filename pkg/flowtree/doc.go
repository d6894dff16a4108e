/*
Package flowtree composes and runs trees of flow nodes.

# Overview

A flow tree is built from a closed set of node types:

  - Step: a leaf wrapping a user function
  - NoOp: a leaf that does nothing, for structurally required branches
  - Sequential: children in order, with an optional finally child
  - Parallel: children concurrently on isolated context copies, then merged
  - Conditional: one of two children, chosen by a predicate
  - Switch: one of many children, chosen by a key
  - Recoverable: a try child with a recover child for eligible failures
  - Retryable: a child re-run while it fails with eligible failures

Every node is created by a New<Type> constructor that validates its
configuration and returns a BUILDER *fault.FlowError when it is wrong. Once
built, a node is immutable; Clone produces an independent copy for reuse.

# Basic Usage

	validate := flowtree.Must(flowtree.NewStep(flowtree.StepConfig[*flowtree.Context]{
	    Name: "validate",
	    Func: flowtree.SimpleStep(func(ctx context.Context, c *flowtree.Context) error {
	        if !c.Has("order") {
	            return fault.Functional("order missing", nil)
	        }
	        return nil
	    }),
	}))

	checkout := flowtree.Must(flowtree.NewSequential(flowtree.SequentialConfig[*flowtree.Context]{
	    Name:  "checkout",
	    Steps: []flowtree.Flow[*flowtree.Context]{validate, charge},
	}))

	report, err := flowtree.Run(ctx, checkout, flowtree.NewContextOf(flowtree.P("order", order)))
	if err != nil {
	    // cancelled, or called with nil arguments
	}
	fmt.Println(report.Status())
	fmt.Print(report.Tree())

# Reports

Each execution returns a Report: the resulting context, the errors and the
warnings collected. Status is derived: ERROR when there are errors, WARNING
when there are only warnings, SUCCESS otherwise. Failures never escape a
node as panics or Go errors once a run has started; they are converted into
ERROR reports and attributed to the node they happened in.

Run wraps the root report in a GlobalReport that can render the execution
tree and list every error raised during the run, including ones that were
retried away or recovered.

# Context

The run's state type T must satisfy State[T]. *Context, an ordered
string-keyed map, satisfies it directly. Typed state embeds *Context:

	type Order struct {
	    *flowtree.Context
	    Total int
	}

	func (o *Order) Clone() *Order {
	    return &Order{Context: o.Context.Clone(), Total: o.Total}
	}

Parallel branches, retry attempts and try branches each run on a Clone.
The default parallel merge replays each branch's map writes onto the
original context in declaration order; typed fields need a custom MergeFunc.

# Cancellation

Cancelling the context passed to Run stops the run: steps receive the
cancelled context, pending retries stop waiting, and Run returns a
*CancellationError instead of a report.

# Thread Safety

  - Nodes are immutable after construction and safe to run concurrently
  - Context IS safe for concurrent use
  - Report and GlobalReport are immutable
*/
package flowtree
