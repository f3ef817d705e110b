package browser

// measureJS collects the element's subtree geometry plus every positioning
// ancestor outside of it. Nodes get synthetic ids so offset parents can be
// referenced.
const measureJS = `function () {
  const root = this;
  const ids = new Map();
  const idOf = (el) => {
    if (!ids.has(el)) ids.set(el, 'n' + ids.size);
    return ids.get(el);
  };
  const outside = [];
  const note = (p) => {
    if (p && !root.contains(p) && !outside.includes(p)) outside.push(p);
  };
  const visit = (el) => {
    const p = el.offsetParent;
    note(p);
    return {
      id: idOf(el),
      tag: el.tagName.toLowerCase(),
      classes: Array.from(el.classList),
      offset_top: el.offsetTop || 0,
      offset_height: el.offsetHeight || 0,
      offset_parent: p ? idOf(p) : '',
      children: Array.from(el.children).map(visit),
    };
  };
  const tree = visit(root);
  const ancestors = [];
  for (let i = 0; i < outside.length; i++) {
    const a = outside[i];
    const p = a.offsetParent;
    note(p);
    ancestors.push({
      id: idOf(a),
      tag: a.tagName.toLowerCase(),
      offset_top: a.offsetTop || 0,
      offset_height: a.offsetHeight || 0,
      offset_parent: p ? idOf(p) : '',
    });
  }
  return { source_width: root.offsetWidth, root: tree, ancestors: ancestors };
}`

// boxJS returns the element's border box in document coordinates.
const boxJS = `function () {
  const r = this.getBoundingClientRect();
  return {
    x: r.left + window.scrollX,
    y: r.top + window.scrollY,
    width: r.width,
    height: r.height,
  };
}`

// attachJS appends a host element below the document content.
const attachJS = `(id, markup, width) => {
  const host = document.createElement('div');
  host.id = id;
  host.style.cssText = 'position:absolute;left:0;top:' +
    (document.documentElement.scrollHeight + 100) + 'px;width:' + width + 'px;background:#fff;';
  host.innerHTML = markup;
  document.body.appendChild(host);
}`

const detachJS = `(id) => {
  const host = document.getElementById(id);
  if (host) host.remove();
}`
