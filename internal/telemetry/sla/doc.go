/*
Package sla evaluates point-in-time measurements against declared
service-level objectives.

# Overview

Targets pair a metric with a comparison against a target value and two
threshold tiers. Each recorded measurement is classified healthy,
warning, breached, or critical; critical and breached classifications
record a breach and derive an alert. Measurements, breaches, and alerts
live in bounded FIFO buffers.

Compliance reports aggregate a target's in-window measurements and are
cached for five minutes keyed by (target, hours); recording a measurement
or mutating a target invalidates that target's cached reports. The
dashboard rollup combines every target's report into a worst-of status
with per-category averages.

# Failure semantics

Recording against an unknown target returns false; report queries return
nil on unknown targets or empty windows. Only AddTarget can fail, and
only on validation.
*/
package sla
