package sample

var Batches = batches
