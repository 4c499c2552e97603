// Package classify derives a priority tier and asset category from repair-job
// description text.
//
// The keyword rules reproduce the classification the upstream BMS system
// applies in SQL, so a job classifies identically whether it is computed here
// or upstream. Classify is a pure function with no hidden state.
package classify
